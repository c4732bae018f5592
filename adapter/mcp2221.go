// Package adapter provides USB-to-I2C bridges usable as an adc.I2CBus from a
// desktop host.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/adc"
	"github.com/mklimuk/adc/adcctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// HID reports are always 64 bytes in both directions.
const reportSize = 64

// maxPayload is the largest I2C transfer fitting in a single report.
const maxPayload = 60

// MCP2221 clocks its I2C engine from 12 MHz.
const mcp2221Clock = 12_000_000

const (
	cmdStatusSetParams = 0x10
	cmdI2CWrite        = 0x90
	cmdI2CRead         = 0x91
	cmdI2CGetData      = 0x40

	paramCancelTransfer = 0x10
	paramSetSpeed       = 0x20

	statusSpeedRejected = 0x21
	readEngineError     = 0x41
	readInvalidLength   = 127
)

var ErrCommandFailed = errors.New("mcp2221: command failed")
var ErrDeviceNotFound = errors.New("mcp2221: device not found")

// MCP2221 is a Microchip USB 2.0 to I2C/UART protocol converter.
// Every transfer opens the HID device, sends one report and reads the reply.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
}

// MCP2221Status is the I2C engine state reported by the status command.
type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"speed_divider"`
	I2CTimeout             int    `yaml:"timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent"`
	ReadPending            int    `yaml:"read_pending"`
}

var _ adc.I2CBus = &MCP2221{}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
	}
}

// Init checks that exactly one adapter can be reached.
func (d *MCP2221) Init() error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > maxPayload {
		return fmt.Errorf("mcp2221: write of %d bytes exceeds %d", len(buffer), maxPayload)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	encodeTransfer(d.request, cmdI2CWrite, address<<1, len(buffer))
	copy(d.request[4:], buffer)
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("mcp2221: write to %#x failed: %w", address, err)
	}
	if d.response[1] != 0x00 {
		slog.DebugContext(ctx, "mcp2221: i2c engine busy", "addr", address)
		return adc.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > maxPayload {
		return fmt.Errorf("mcp2221: read of %d bytes exceeds %d", len(buffer), maxPayload)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	encodeTransfer(d.request, cmdI2CRead, address<<1|1, len(buffer))
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("mcp2221: read from %#x failed: %w", address, err)
	}
	if d.response[1] != 0x00 {
		return adc.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdI2CGetData
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("mcp2221: fetching read data failed: %w", err)
	}
	return decodeReadData(d.response, buffer)
}

// SetSpeed sets the I2C clock. It fails while a transfer is in progress.
func (d *MCP2221) SetSpeed(ctx context.Context, f physic.Frequency) error {
	hz := int(f / physic.Hertz)
	divider, err := speedDivider(hz)
	if err != nil {
		return err
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[3] = paramSetSpeed
	d.request[4] = divider
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("mcp2221: set speed failed: %w", err)
	}
	if d.response[3] == statusSpeedRejected {
		return fmt.Errorf("%w: speed %d Hz not accepted while a transfer is in progress", ErrCommandFailed, hz)
	}
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	if err := d.send(ctx); err != nil {
		return nil, fmt.Errorf("mcp2221: status request failed: %w", err)
	}
	return parseStatus(d.response), nil
}

// Release cancels any pending transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[2] = paramCancelTransfer
	if err := d.send(ctx); err != nil {
		return nil, fmt.Errorf("mcp2221: cancel transfer failed: %w", err)
	}
	return parseStatus(d.response), nil
}

func (d *MCP2221) send(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.DebugContext(ctx, "mcp2221: closing device failed", "error", err)
		}
	}()
	verbose := adcctx.IsVerbose(ctx)
	if verbose {
		slog.DebugContext(ctx, "mcp2221: sending report\n"+hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	time.Sleep(d.responseWait)
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.DebugContext(ctx, "mcp2221: received report\n"+hex.Dump(d.response))
	}
	if d.response[0] != d.request[0] {
		return fmt.Errorf("%w: response to %#x echoes %#x", ErrCommandFailed, d.request[0], d.response[0])
	}
	return nil
}

// open picks the adapter selected through adcctx.SetDeviceIndex, or the only
// one attached.
func open(ctx context.Context) (*hid.Device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, ErrDeviceNotFound
	}
	idx, selected := adcctx.DeviceIndex(ctx)
	if !selected {
		if len(devs) > 1 {
			return nil, fmt.Errorf("ambiguous device identification: %d adapters attached", len(devs))
		}
		idx = 0
	}
	if idx < 0 || idx >= len(devs) {
		return nil, fmt.Errorf("no device with id %d", idx)
	}
	dev, err := devs[idx].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func encodeTransfer(request []byte, cmd byte, addr byte, length int) {
	request[0] = cmd
	binary.LittleEndian.PutUint16(request[1:3], uint16(length))
	request[3] = addr
}

func decodeReadData(response []byte, buffer []byte) error {
	if response[1] == readEngineError {
		return fmt.Errorf("%w: error reading the I2C slave data from the I2C engine", ErrCommandFailed)
	}
	if response[3] == readInvalidLength || int(response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), response[3])
	}
	copy(buffer, response[4:4+len(buffer)])
	return nil
}

func speedDivider(hz int) (byte, error) {
	if hz <= 0 {
		return 0, fmt.Errorf("mcp2221: invalid i2c speed %d", hz)
	}
	div := mcp2221Clock/hz - 3
	if div < 0 || div > 0xFF {
		return 0, fmt.Errorf("mcp2221: i2c speed %d Hz out of range", hz)
	}
	return byte(div), nil
}

func parseStatus(buffer []byte) *MCP2221Status {
	// 9-10: requested transfer length, 11-12: already transferred,
	// 13: data buffer counter, 14: speed divider, 15: timeout,
	// 16-17: address in use, 25: read pending
	return &MCP2221Status{
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
		ReadPending:            int(buffer[25]),
	}
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
