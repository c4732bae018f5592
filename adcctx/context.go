// Package adcctx carries per-call flags through context.
package adcctx

import "context"

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexDevice
)

// IsVerbose reports whether transports should dump raw frames.
func IsVerbose(ctx context.Context) bool {
	val, ok := ctx.Value(ctxIndexVerbose).(bool)
	return ok && val
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// DeviceIndex returns the index of the USB adapter to talk to when several
// are attached, and false when none was selected.
func DeviceIndex(ctx context.Context) (int, bool) {
	val, ok := ctx.Value(ctxIndexDevice).(int)
	return val, ok
}

func SetDeviceIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, ctxIndexDevice, index)
}
