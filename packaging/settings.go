// Copyright 2026 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

package packaging

import (
	"github.com/openlms/activitypack/core/backup"
)

// TaskSettings maps each task kind in a backup plan to the settings
// those tasks expose, in plan order. It is built fresh for every
// packaging run and must not be mutated once the plan executes.
type TaskSettings map[backup.TaskKind][]backup.Setting

// planSettings collects the settings exposed by every task of the
// plan. Purely a read; the settings remain owned by their tasks.
func planSettings(plan backup.Plan) TaskSettings {
	settings := make(TaskSettings)
	for _, task := range plan.Tasks() {
		settings[task.Kind()] = append(settings[task.Kind()], task.Settings()...)
	}
	return settings
}

// Override sets the named root-task setting to value. Only the first
// setting matching name is touched, and only if its current value
// differs. A plan without a root task, or without a setting of that
// name, is left untouched: different activity kinds expose different
// setting sets, so an absent target is not an error.
func (ts TaskSettings) Override(name string, value int) {
	rootSettings, ok := ts[backup.TaskRoot]
	if !ok {
		return
	}
	for _, setting := range rootSettings {
		if setting.Name() != name {
			continue
		}
		if setting.Value() != value {
			setting.SetValue(value)
		}
		return
	}
}
