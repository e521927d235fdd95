package types

import (
	"fmt"
	"sort"
)

// Role names a collaborator process reachable on its own loopback port.
type Role string

// Collaborator roles.
const (
	RoleManager        Role = "manager"
	RoleRecorder       Role = "recorder"
	RolePlayer         Role = "player"
	RoleTuner          Role = "tuner"
	RoleEffect         Role = "effector"
	RoleAudioOut       Role = "audio_out"
	RoleUploader       Role = "uploader"
	RoleDownloader     Role = "downloader"
	RoleAPConfigurator Role = "ap_configurator"
	RoleLED            Role = "led"
)

// DefaultPorts are the well-known loopback ports of the appliance.
var DefaultPorts = map[Role]int{
	RoleManager:        8001,
	RoleRecorder:       8002,
	RolePlayer:         8003,
	RoleTuner:          8004,
	RoleEffect:         8005,
	RoleAudioOut:       8006,
	RoleUploader:       8100,
	RoleDownloader:     8101,
	RoleAPConfigurator: 8200,
	RoleLED:            9001,
}

// ParseRole validates a role name.
func ParseRole(name string) (Role, error) {
	r := Role(name)
	if _, ok := DefaultPorts[r]; !ok {
		return "", fmt.Errorf("unknown role %q", name)
	}
	return r, nil
}

// AllRoles returns the known roles sorted by default port.
func AllRoles() []Role {
	roles := make([]Role, 0, len(DefaultPorts))
	for r := range DefaultPorts {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool {
		return DefaultPorts[roles[i]] < DefaultPorts[roles[j]]
	})
	return roles
}
