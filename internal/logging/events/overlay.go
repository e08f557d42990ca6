package events

import "github.com/atomicstack/tab-popup-control/internal/logging"

type OverlayTracer struct{}

type hideReason string

const (
	HideEscape hideReason = "escape"
	HideToggle hideReason = "toggle"
	HideCommit hideReason = "commit"
)

var Overlay = OverlayTracer{}

func (OverlayTracer) Show(current string, count int) {
	logging.Trace("overlay.show", map[string]interface{}{"current": current, "tabs": count})
}

func (OverlayTracer) Hide(reason hideReason) {
	logging.Trace("overlay.hide", map[string]interface{}{"reason": string(reason)})
}

func (OverlayTracer) Move(selected int) {
	logging.Trace("overlay.move", map[string]interface{}{"selected": selected})
}

func (OverlayTracer) Cycle(forward bool, selected int) {
	logging.Trace("overlay.cycle", map[string]interface{}{"forward": forward, "selected": selected})
}

func (OverlayTracer) Commit(id string) {
	logging.Trace("overlay.commit", map[string]interface{}{"tab": id})
}
