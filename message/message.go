// Package message defines the typed messages exchanged between sources, the
// engine and channels, and the queues that carry them.
package message

import "fmt"

type Kind int

const (
	KindSignalNotification Kind = iota
	KindConfigureCorrection
	KindConfigureDecimation
	KindConfigureChannelizer
	KindAcquisitionInit
	KindAcquisitionStart
	KindAcquisitionStop
	KindSetSource
	KindAddSink
	KindRemoveSink
	KindConfigureNavtex
	KindNavtexReport
	KindConfigureInterferometer
	KindPhaseReport
)

var kindNames = map[Kind]string{
	KindSignalNotification:      "SignalNotification",
	KindConfigureCorrection:     "ConfigureCorrection",
	KindConfigureDecimation:     "ConfigureDecimation",
	KindConfigureChannelizer:    "ConfigureChannelizer",
	KindAcquisitionInit:         "AcquisitionInit",
	KindAcquisitionStart:        "AcquisitionStart",
	KindAcquisitionStop:         "AcquisitionStop",
	KindSetSource:               "SetSource",
	KindAddSink:                 "AddSink",
	KindRemoveSink:              "RemoveSink",
	KindConfigureNavtex:         "ConfigureNavtex",
	KindNavtexReport:            "NavtexReport",
	KindConfigureInterferometer: "ConfigureInterferometer",
	KindPhaseReport:             "PhaseReport",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Message is implemented by every payload carried on a Queue or Messenger.
// Payloads are values and must not be mutated after they are pushed.
type Message interface {
	Kind() Kind
}

// SignalNotification announces the sample rate and center frequency of a stream.
type SignalNotification struct {
	SampleRate      int
	CenterFrequency int64
}

func (SignalNotification) Kind() Kind { return KindSignalNotification }

// ConfigureCorrection enables or disables DC offset and IQ imbalance correction.
type ConfigureCorrection struct {
	DCOffset    bool
	IQImbalance bool
}

func (ConfigureCorrection) Kind() Kind { return KindConfigureCorrection }

// FcPos places the wanted band relative to the device LO when decimating.
type FcPos int

const (
	Infradyne FcPos = iota
	Supradyne
	Centered
)

func (p FcPos) String() string {
	switch p {
	case Infradyne:
		return "infra"
	case Supradyne:
		return "supra"
	case Centered:
		return "center"
	}
	return fmt.Sprintf("FcPos(%d)", int(p))
}

// ParseFcPos accepts infra, supra or center.
func ParseFcPos(s string) (FcPos, error) {
	switch s {
	case "infra", "infradyne":
		return Infradyne, nil
	case "supra", "supradyne":
		return Supradyne, nil
	case "center", "centered", "":
		return Centered, nil
	}
	return Centered, fmt.Errorf("unknown fc_pos %q", s)
}

// ConfigureDecimation sets the device side power of two decimation.
type ConfigureDecimation struct {
	Log2Decim int
	FcPos     FcPos
}

func (ConfigureDecimation) Kind() Kind { return KindConfigureDecimation }

// ConfigureChannelizer retunes a channel relative to the stream center.
type ConfigureChannelizer struct {
	SampleRate      int
	FrequencyOffset int64
}

func (ConfigureChannelizer) Kind() Kind { return KindConfigureChannelizer }
