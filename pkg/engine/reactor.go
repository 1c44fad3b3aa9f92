package engine

import (
	"context"
	"log"
	"time"

	"github.com/reviewbadge/reviewbadge/pkg/store"
)

// UpdateAlarm is the scheduler name for the recurring update timer.
const UpdateAlarm = "update"

// SettingsSource is the slice of the settings store the reactor needs.
type SettingsSource interface {
	Subscribe() <-chan store.ChangeEvent
	UpdateInterval() time.Duration
}

// Reactor applies configuration changes to the running engine: an interval
// change reschedules the update timer, a credential change triggers an
// immediate cycle so a newly added key is reflected without waiting for
// the next fire.
type Reactor struct {
	settings SettingsSource
	sched    *Scheduler
	orch     *Orchestrator
}

func NewReactor(settings SettingsSource, sched *Scheduler, orch *Orchestrator) *Reactor {
	return &Reactor{settings: settings, sched: sched, orch: orch}
}

// Start installs the initial timer and reacts to settings changes until the
// context is canceled.
func (r *Reactor) Start(ctx context.Context) {
	events := r.settings.Subscribe()
	r.reschedule()

	go func() {
		for {
			select {
			case <-ctx.Done():
				r.sched.Clear(UpdateAlarm)
				return
			case ev := <-events:
				switch ev.Kind {
				case store.KindInterval:
					r.reschedule()
				case store.KindCredentials:
					log.Println("credentials changed, triggering immediate cycle")
					r.orch.Trigger()
				}
			}
		}
	}()
}

// reschedule replaces the update timer with one firing at the current
// interval. The first fire is one full interval from now, not immediately.
func (r *Reactor) reschedule() {
	interval := r.settings.UpdateInterval()
	r.sched.Clear(UpdateAlarm)
	r.sched.Create(UpdateAlarm, interval, r.orch.Trigger)
	log.Printf("update timer set to %s", interval)
}
