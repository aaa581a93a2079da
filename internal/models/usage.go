package models

import "sort"

// Role names the way a row references a location or catalog entry.
type Role string

const (
	RoleSource       Role = "source"
	RoleDestination  Role = "destination"
	RoleInstallation Role = "installation"
	RoleCableType    Role = "cable_type"
	RoleDeviceModel  Role = "device_model"
	RoleCPUModel     Role = "cpu_model"
	RoleSIDType      Role = "sid_type"
	RoleVLAN         Role = "vlan"

	// child rows removed along with cascaded devices
	RoleNICs  Role = "nics"
	RoleNotes Role = "notes"
)

// Usage is a per-role count of referencing rows.
type Usage map[Role]int64

func (u Usage) Total() int64 {
	var n int64
	for _, v := range u {
		n += v
	}
	return n
}

// Roles returns the roles in stable order (for logs and messages).
func (u Usage) Roles() []Role {
	out := make([]Role, 0, len(u))
	for r := range u {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (u Usage) Add(r Role, n int64) {
	u[r] += n
}
