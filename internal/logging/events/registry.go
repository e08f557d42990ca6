package events

import "github.com/atomicstack/tab-popup-control/internal/logging"

type RegistryTracer struct{}

var Registry = RegistryTracer{}

func (RegistryTracer) Refresh(count int) {
	logging.Trace("registry.refresh", map[string]interface{}{"tabs": count})
}

func (RegistryTracer) Record(id string, size int) {
	logging.Trace("registry.record", map[string]interface{}{"tab": id, "history": size})
}

func (RegistryTracer) Forget(id string) {
	logging.Trace("registry.forget", map[string]interface{}{"tab": id})
}

func (RegistryTracer) Toggle(page, current string, window int64, count int) {
	logging.Trace("registry.toggle", map[string]interface{}{
		"page":    page,
		"current": current,
		"window":  window,
		"tabs":    count,
	})
}

func (RegistryTracer) Switch(id string) {
	logging.Trace("registry.switch", map[string]interface{}{"tab": id})
}

func (RegistryTracer) Event(kind, id string) {
	logging.Trace("registry.event", map[string]interface{}{"kind": kind, "tab": id})
}
