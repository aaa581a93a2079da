package integrity

import (
	"fmt"
	"strings"

	"labeldesk/internal/models"
)

// TargetKind is a table whose rows can be referenced and therefore go through
// the deletion engine.
type TargetKind string

const (
	TargetLocation    TargetKind = "location"
	TargetCableType   TargetKind = "cable_type"
	TargetDeviceModel TargetKind = "device_model"
	TargetCPUModel    TargetKind = "cpu_model"
	TargetSIDType     TargetKind = "sid_type"
	TargetVLAN        TargetKind = "vlan"
)

type Target struct {
	Kind TargetKind `json:"kind"`
	ID   uint       `json:"id"`
}

func (t Target) String() string { return fmt.Sprintf("%s %d", t.Kind, t.ID) }

func ParseTargetKind(s string) (TargetKind, error) {
	k := TargetKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	k = TargetKind(strings.TrimSuffix(string(k), "s"))
	if _, ok := registry[k]; !ok {
		return "", models.Invalid("kind", fmt.Sprintf("unknown reference kind %q", s))
	}
	return k, nil
}

// ref is one foreign-key column that points at a target table.
type ref struct {
	role   models.Role
	model  func() any // referencing table
	column string
	// rows owned by the referencing row; deleted before it on cascade
	children []child
}

type child struct {
	role   models.Role
	model  func() any
	column string
}

type spec struct {
	table string
	model func() any
	refs  []ref
}

func labelModel() any  { return &models.Label{} }
func deviceModel() any { return &models.Device{} }
func nicModel() any    { return &models.NIC{} }

var deviceChildren = []child{
	{role: models.RoleNICs, model: nicModel, column: "device_id"},
	{role: models.RoleNotes, model: func() any { return &models.Note{} }, column: "device_id"},
}

// registry is the complete list of references. A new foreign key to a
// location or catalog table must be added here, or deletes will leave it dangling.
var registry = map[TargetKind]spec{
	TargetLocation: {
		table: "locations",
		model: func() any { return &models.Location{} },
		refs: []ref{
			{role: models.RoleSource, model: labelModel, column: "source_location_id"},
			{role: models.RoleDestination, model: labelModel, column: "destination_location_id"},
			{role: models.RoleInstallation, model: deviceModel, column: "location_id", children: deviceChildren},
		},
	},
	TargetCableType: {
		table: "cable_types",
		model: func() any { return &models.CableType{} },
		refs: []ref{
			{role: models.RoleCableType, model: labelModel, column: "cable_type_id"},
		},
	},
	TargetDeviceModel: {
		table: "device_models",
		model: func() any { return &models.DeviceModel{} },
		refs: []ref{
			{role: models.RoleDeviceModel, model: deviceModel, column: "device_model_id", children: deviceChildren},
		},
	},
	TargetCPUModel: {
		table: "cpu_models",
		model: func() any { return &models.CPUModel{} },
		refs: []ref{
			{role: models.RoleCPUModel, model: deviceModel, column: "cpu_model_id", children: deviceChildren},
		},
	},
	TargetSIDType: {
		table: "sid_types",
		model: func() any { return &models.SIDType{} },
		refs: []ref{
			{role: models.RoleSIDType, model: deviceModel, column: "sid_type_id", children: deviceChildren},
		},
	},
	TargetVLAN: {
		table: "vlans",
		model: func() any { return &models.VLAN{} },
		refs: []ref{
			{role: models.RoleVLAN, model: nicModel, column: "vlan_id"},
		},
	},
}

// Roles lists the usage roles reported for kind.
func Roles(kind TargetKind) []models.Role {
	sp, ok := registry[kind]
	if !ok {
		return nil
	}
	out := make([]models.Role, 0, len(sp.refs))
	for _, r := range sp.refs {
		out = append(out, r.role)
	}
	return out
}

func lookup(kind TargetKind) (spec, error) {
	sp, ok := registry[kind]
	if !ok {
		return spec{}, models.Invalid("kind", fmt.Sprintf("unknown reference kind %q", kind))
	}
	return sp, nil
}
