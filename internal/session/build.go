package session

import (
	"fmt"
	"log"

	"nmeabridge/internal/config"
	"nmeabridge/internal/sink"
	"nmeabridge/internal/source"
)

func buildSource(in config.InputConfig, onData source.DataFunc, onState source.StateFunc) (source.Source, error) {
	switch in.Kind {
	case "udp":
		return source.NewUDPListener(source.UDPConfig{
			Addr:    in.UDP.Addr,
			Port:    in.UDP.Port,
			OnData:  onData,
			OnState: onState,
		})
	case "tcp":
		return source.NewTCPClient(source.TCPConfig{
			Host:           in.TCP.Host,
			Port:           in.TCP.Port,
			ReconnectDelay: in.TCP.ReconnectDelay,
			OnData:         onData,
			OnState:        onState,
		})
	default:
		return nil, fmt.Errorf("session: unknown input kind %q", in.Kind)
	}
}

func buildSinks(outputs []config.OutputConfig, onState func(name string, old, new sink.State, msg string)) ([]sink.Sink, error) {
	sinks := make([]sink.Sink, 0, len(outputs))
	for _, o := range outputs {
		if !o.Enabled {
			continue
		}
		s, err := buildSink(o, onState)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func buildSink(o config.OutputConfig, onState func(name string, old, new sink.State, msg string)) (sink.Sink, error) {
	switch o.Kind {
	case "serial":
		name := "serial:" + o.Serial.Port
		return sink.NewSerial(sink.SerialConfig{
			PortName: o.Serial.Port,
			BaudRate: o.Serial.Baud,
			DataBits: o.Serial.DataBits,
			StopBits: o.Serial.StopBits,
			Parity:   parseParity(o.Serial.Parity),
			OnState:  stateLogger(name, onState),
		})
	case "vcom":
		name := "vcom:" + o.VCOM.Port
		return sink.NewVCOM(sink.VCOMConfig{
			PortName: o.VCOM.Port,
			AutoMode: o.VCOM.Auto,
			OnState:  stateLogger(name, onState),
		})
	case "udp":
		name := fmt.Sprintf("udp:%s:%d", o.UDP.Address, o.UDP.Port)
		return sink.NewUDP(sink.UDPConfig{
			Address:   o.UDP.Address,
			Port:      o.UDP.Port,
			Broadcast: o.UDP.Broadcast,
			OnState:   stateLogger(name, onState),
		})
	case "file":
		name := "file:" + o.File.Path
		return sink.NewFile(sink.FileConfig{
			Path:            o.File.Path,
			AppendTimestamp: o.File.AppendTimestamp,
			OnState:         stateLogger(name, onState),
		})
	default:
		return nil, fmt.Errorf("session: unknown output kind %q", o.Kind)
	}
}

func stateLogger(name string, onState func(name string, old, new sink.State, msg string)) sink.StateFunc {
	return func(old, new sink.State, msg string) {
		if onState != nil {
			onState(name, old, new, msg)
		}
	}
}

func parseParity(s string) sink.Parity {
	switch s {
	case "odd":
		return sink.ParityOdd
	case "even":
		return sink.ParityEven
	default:
		return sink.ParityNone
	}
}

func logSinkState(name string, old, new sink.State, msg string) {
	if msg != "" {
		log.Printf("sink %s state %s -> %s: %s", name, old, new, msg)
		return
	}
	log.Printf("sink %s state %s -> %s", name, old, new)
}
