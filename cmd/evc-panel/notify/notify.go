// Copyright 2024 Open E-Line Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package notify renders circuit outcomes as user-facing events on the bus.
package notify

import (
	"fmt"

	"github.com/open-eline/evc-console/cmd/evc-panel/engine"
	"github.com/open-eline/evc-console/internal"
	"github.com/open-eline/evc-console/pkg/datamodel"
	"go.uber.org/zap"
)

// Every circuit notification carries the same icon.
const notificationIcon = "gear"

// Notifier turns circuit outcomes into setNotification events.
type Notifier struct {
	bus internal.Bus
}

func NewNotifier(bus internal.Bus) *Notifier {
	return &Notifier{bus: bus}
}

// CircuitOutcome publishes exactly one notification for the outcome, success
// and failure alike. Publish failures are logged and dropped: the outcome is
// terminal, there is nothing left to retry it against.
func (n *Notifier) CircuitOutcome(outcome engine.Outcome) {

	var notification datamodel.Notification
	if outcome.Created {
		notification = datamodel.Notification{
			Icon:        notificationIcon,
			Title:       "Circuit created",
			Description: fmt.Sprintf("Circuit with id %s created.", outcome.CircuitID),
		}
	} else {
		notification = datamodel.Notification{
			Icon:        notificationIcon,
			Title:       fmt.Sprintf("Circuit creation failed: %d", outcome.StatusCode),
			Description: outcome.Description,
		}
	}

	if err := n.bus.Publish(datamodel.EventSetNotification, notification); err != nil {
		zap.S().Errorf(
			"Failed to publish notification (%s): %s",
			internal.SanitizeString(notification.Title),
			err)
	}
}
