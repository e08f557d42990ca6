package events

import "github.com/atomicstack/tab-popup-control/internal/logging"

type TransportTracer struct{}

var Transport = TransportTracer{}

func (TransportTracer) Connect(page, role string) {
	logging.Trace("transport.connect", map[string]interface{}{"page": page, "role": role})
}

func (TransportTracer) Disconnect(page string) {
	logging.Trace("transport.disconnect", map[string]interface{}{"page": page})
}

func (TransportTracer) Send(page, action, id string) {
	logging.Trace("transport.send", map[string]interface{}{"page": page, "action": action, "id": id})
}

func (TransportTracer) Receive(page, action, id string) {
	logging.Trace("transport.receive", map[string]interface{}{"page": page, "action": action, "id": id})
}
