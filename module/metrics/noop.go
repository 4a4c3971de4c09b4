package metrics

import (
	"github.com/onflow/flow-slotpool/module"
)

type NoopCollector struct{}

var _ module.SlotPoolMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) OnSlotAcquired(uint32) {}
func (nc *NoopCollector) OnSlotReleased(uint32) {}
func (nc *NoopCollector) OnAcquireDropped()     {}
