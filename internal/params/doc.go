// Package params holds the simulation parameter store.
//
// A [Store] owns two [Table] instances: the fixed table (configuration, set
// once at startup) and the dynamic table (simulation state, mutated every
// tick). Entries are boxed, so a handle returned by [Table.Get] or
// [Table.Float64] stays valid for the life of the table even as new entries
// are appended.
//
// Tables are loaded from a CSV file with rows of
//
//	variable_name,data_type,dynamic_or_fixed,value
//
// where data_type is one of int, double or char and dynamic_or_fixed is one
// of fixed, dynamic or state. Rows routed as state land in the dynamic table
// and are marked as part of the integrated state vector.
//
// Tables are not safe for concurrent use; the orchestrator owns them.
package params
