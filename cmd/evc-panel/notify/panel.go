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

package notify

import (
	"github.com/open-eline/evc-console/internal"
	"github.com/open-eline/evc-console/pkg/datamodel"
	"go.uber.org/zap"
)

// PanelLauncher opens the connections list panel in the host UI.
type PanelLauncher struct {
	bus internal.Bus
}

func NewPanelLauncher(bus internal.Bus) *PanelLauncher {
	return &PanelLauncher{bus: bus}
}

// listPanelDescriptor returns the fixed descriptor of the connections list
// panel. Content is present but empty, the panel component loads its own
// data once mounted.
func listPanelDescriptor() datamodel.PanelDescriptor {
	return datamodel.PanelDescriptor{
		Component: "evc-panel-circuit-list",
		Content:   map[string]interface{}{},
		Icon:      "desktop",
		Title:     "View Connections",
		Subtitle:  "by open-eline/evc-console",
	}
}

// LaunchListPanel publishes one showInfoPanel event. The launcher holds no
// state: launching twice publishes two identical events.
func (l *PanelLauncher) LaunchListPanel() {
	if err := l.bus.Publish(datamodel.EventShowInfoPanel, listPanelDescriptor()); err != nil {
		zap.S().Errorf("Failed to publish panel launch: %s", err)
	}
}
