package base

import "github.com/zhishengyifeng/community-robot-demos/pkg/basepb"

// SetReportFrequency builds the command that asks the base to stream
// status frames at the given rate.
func SetReportFrequency(freq basepb.ReportFrequency) *basepb.ApiDown {
	return &basepb.ApiDown{SetReportFrequency: &freq}
}

// AcquireControl builds the command that requests control of the base.
func AcquireControl() *basepb.ApiDown {
	enable := true
	return &basepb.ApiDown{
		BaseCommand: &basepb.BaseCommand{ApiControlInitialize: &enable},
	}
}

// ReleaseControl builds the command that gives control back.
func ReleaseControl() *basepb.ApiDown {
	enable := false
	return &basepb.ApiDown{
		BaseCommand: &basepb.BaseCommand{ApiControlInitialize: &enable},
	}
}

// Move builds a velocity command. x is forward m/s, y is lateral m/s,
// z is counter-clockwise rad/s. A zero vector is a valid command and
// tells the base to hold still.
func Move(x, y, z float32) *basepb.ApiDown {
	return &basepb.ApiDown{
		BaseCommand: &basepb.BaseCommand{
			SimpleMoveCommand: &basepb.SimpleBaseMoveCommand{
				XyzSpeed: &basepb.XyzSpeed{SpeedX: x, SpeedY: y, SpeedZ: z},
			},
		},
	}
}
