package integrity

import (
	"testing"

	"labeldesk/internal/models"
	"labeldesk/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountUsage_Location(t *testing.T) {
	gdb := testutil.NewDB(t)
	site := testutil.Site(t, gdb, "DC1")
	loc := testutil.RackLocation(t, gdb, site.ID, "01")
	other := testutil.RackLocation(t, gdb, site.ID, "02")
	testutil.Label(t, gdb, site.ID, 1, &loc.ID, &other.ID, nil)
	testutil.Label(t, gdb, site.ID, 2, &loc.ID, &loc.ID, nil)
	require.NoError(t, gdb.Create(&models.Device{SiteID: site.ID, SIDNumber: 1, LocationID: &loc.ID}).Error)

	u, err := CountUsage(gdb, site.ID, Target{Kind: TargetLocation, ID: loc.ID})
	require.NoError(t, err)
	assert.Equal(t, models.Usage{
		models.RoleSource:       2,
		models.RoleDestination:  1,
		models.RoleInstallation: 1,
	}, u)
	assert.Equal(t, int64(4), u.Total())
}

func TestCountUsage_IncludesZeroRoles(t *testing.T) {
	gdb := testutil.NewDB(t)
	site := testutil.Site(t, gdb, "DC1")
	ct := testutil.CableType(t, gdb, site.ID, "Cat6")

	u, err := CountUsage(gdb, site.ID, Target{Kind: TargetCableType, ID: ct.ID})
	require.NoError(t, err)
	assert.Equal(t, models.Usage{models.RoleCableType: 0}, u)
}

func TestCountUsage_NotFoundAcrossSites(t *testing.T) {
	gdb := testutil.NewDB(t)
	site := testutil.Site(t, gdb, "DC1")
	other := testutil.Site(t, gdb, "DC2")
	ct := testutil.CableType(t, gdb, other.ID, "Cat6")

	_, err := CountUsage(gdb, site.ID, Target{Kind: TargetCableType, ID: ct.ID})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		name    string
		legacy  bool
		want    Strategy
		wantErr bool
	}{
		{"", false, StrategyAuto, false},
		{"", true, StrategyCascade, false},
		{"Reassign", false, StrategyReassign, false},
		{"cascade", true, StrategyCascade, false},
		{"block", false, StrategyBlock, false},
		{"reassign", true, "", true},
		{"drop", false, "", true},
	}
	for _, c := range cases {
		got, err := ParseStrategy(c.name, c.legacy)
		if c.wantErr {
			assert.ErrorIs(t, err, models.ErrValidation, c.name)
			continue
		}
		require.NoError(t, err, c.name)
		assert.Equal(t, c.want, got, c.name)
	}
}

func TestParseTargetKind(t *testing.T) {
	for in, want := range map[string]TargetKind{
		"locations":     TargetLocation,
		"cable-types":   TargetCableType,
		"cable_type":    TargetCableType,
		"device_models": TargetDeviceModel,
		"cpu-models":    TargetCPUModel,
		"sid_types":     TargetSIDType,
		"VLANs":         TargetVLAN,
	} {
		got, err := ParseTargetKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTargetKind("labels")
	assert.ErrorIs(t, err, models.ErrValidation)
}
