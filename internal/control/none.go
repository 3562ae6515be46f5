package control

import "github.com/san-kum/windsim/internal/dynamo"

// None keeps whatever torque command the parameter file set.
type None struct{}

func (None) Control(*dynamo.Env) {}
