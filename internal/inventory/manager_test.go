package inventory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"labeldesk/internal/db"
	"labeldesk/internal/integrity"
	"labeldesk/internal/inventory/locschema"
	"labeldesk/internal/models"
	"labeldesk/internal/sequence"
	"labeldesk/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func newManager(t *testing.T) (*Manager, *gorm.DB) {
	t.Helper()
	gdb := testutil.NewDB(t)
	return NewManager(gdb), gdb
}

func TestCreateLabel_NumbersAndReference(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")
	ct := testutil.CableType(t, gdb, site.ID, "Cat6")

	l1, err := m.CreateLabel(ctx, site.ID, LabelInput{CableTypeID: &ct.ID, Description: " uplink "})
	require.NoError(t, err)
	l2, err := m.CreateLabel(ctx, site.ID, LabelInput{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), l1.RefNumber)
	assert.Equal(t, "DC1-000001", l1.Reference)
	assert.Equal(t, "uplink", l1.Description)
	assert.Empty(t, l1.BatchID)
	assert.Equal(t, int64(2), l2.RefNumber)
}

func TestCreateLabel_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	m, gdb := newManager(t)
	site := testutil.Site(t, gdb, "DC1")

	const n = 20
	got := make([]int64, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			l, err := m.CreateLabel(context.Background(), site.ID, LabelInput{})
			if err != nil {
				return err
			}
			got[i] = l.RefNumber
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := map[int64]bool{}
	for _, v := range got {
		assert.False(t, seen[v], "number %d issued twice", v)
		seen[v] = true
		assert.True(t, v >= 1 && v <= n)
	}
}

func TestCreateLabel_InvalidReferenceConsumesNoNumber(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")
	other := testutil.Site(t, gdb, "DC2")
	foreign := testutil.RackLocation(t, gdb, other.ID, "01")
	missing := uint(4242)

	_, err := m.CreateLabel(ctx, site.ID, LabelInput{SourceLocationID: &foreign.ID})
	var rerr *models.ReferenceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "source_location_id", rerr.Field)

	_, err = m.CreateLabel(ctx, site.ID, LabelInput{CableTypeID: &missing})
	assert.ErrorIs(t, err, models.ErrInvalidReference)

	l, err := m.CreateLabel(ctx, site.ID, LabelInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.RefNumber)
}

func TestCreateLabel_UnknownSite(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.CreateLabel(context.Background(), 99, LabelInput{})
	assert.ErrorIs(t, err, models.ErrSiteNotFound)
}

func TestCreateLabel_Validation(t *testing.T) {
	m, gdb := newManager(t)
	site := testutil.Site(t, gdb, "DC1")

	_, err := m.CreateLabel(context.Background(), site.ID, LabelInput{Description: strings.Repeat("x", 256)})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)

	_, err = m.CreateLabels(context.Background(), site.ID, LabelInput{}, 0)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateLabel_RetriesPastOutOfBandRows(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")

	_, err := m.CreateLabel(ctx, site.ID, LabelInput{})
	require.NoError(t, err)
	// импорт в обход счётчика
	testutil.Label(t, gdb, site.ID, 2, nil, nil, nil)
	testutil.Label(t, gdb, site.ID, 3, nil, nil, nil)

	l, err := m.CreateLabel(ctx, site.ID, LabelInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), l.RefNumber)
	assert.Equal(t, int64(4), testutil.Count(t, gdb, &models.Label{}, "site_id = ?", site.ID))
}

func TestCreateWithRetry_SecondCollisionIsDuplicateKey(t *testing.T) {
	m, gdb := newManager(t)
	site := testutil.Site(t, gdb, "DC1")

	calls := 0
	err := m.createWithRetry(context.Background(), site.ID, sequence.KindLabel, func(*gorm.DB) error {
		calls++
		return gorm.ErrDuplicatedKey
	})
	assert.ErrorIs(t, err, models.ErrDuplicateKey)
	assert.Equal(t, 2, calls)
}

func TestCreateLabels_ContiguousBlock(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")

	out, err := m.CreateLabels(ctx, site.ID, LabelInput{Description: "patch"}, 5)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i, l := range out {
		assert.Equal(t, int64(i+1), l.RefNumber)
		assert.Equal(t, out[0].BatchID, l.BatchID)
	}
	assert.NotEmpty(t, out[0].BatchID)

	next, err := m.CreateLabel(ctx, site.ID, LabelInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), next.RefNumber)
}

func TestUpdateLabel_DescriptiveFieldsOnly(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")
	l, err := m.CreateLabel(ctx, site.ID, LabelInput{Description: "old"})
	require.NoError(t, err)

	desc := "new"
	got, err := m.UpdateLabel(ctx, site.ID, l.ID, LabelPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Description)
	assert.Equal(t, l.Reference, got.Reference)

	other := testutil.Site(t, gdb, "DC2")
	_, err = m.UpdateLabel(ctx, other.ID, l.ID, LabelPatch{Description: &desc})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteLabels_AllOrNothing(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")
	other := testutil.Site(t, gdb, "DC2")
	a := testutil.Label(t, gdb, site.ID, 1, nil, nil, nil)
	b := testutil.Label(t, gdb, site.ID, 2, nil, nil, nil)
	foreign := testutil.Label(t, gdb, other.ID, 1, nil, nil, nil)

	_, err := m.DeleteLabels(ctx, site.ID, []uint{a.ID, foreign.ID})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, int64(2), testutil.Count(t, gdb, &models.Label{}, "site_id = ?", site.ID))

	n, err := m.DeleteLabels(ctx, site.ID, []uint{a.ID, b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Zero(t, testutil.Count(t, gdb, &models.Label{}, "site_id = ?", site.ID))
	assert.Equal(t, int64(1), testutil.Count(t, gdb, &models.Label{}, "site_id = ?", other.ID))

	_, err = m.DeleteLabels(ctx, site.ID, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateDevice_WithNICs(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")
	loc := testutil.RackLocation(t, gdb, site.ID, "01")
	vlan, err := m.CreateVLAN(ctx, site.ID, VLANInput{Number: 100, Name: "mgmt"})
	require.NoError(t, err)

	d, err := m.CreateDevice(ctx, site.ID, DeviceInput{
		Hostname:   "sw-01",
		LocationID: &loc.ID,
		Attributes: []byte(`{"ports":48}`),
		NICs: []NICInput{
			{Name: "mgmt0", MAC: "AA:BB:CC:00:11:22", VLANID: &vlan.ID},
			{Name: "eth1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SID1", d.DisplayID())
	assert.Equal(t, int64(2), testutil.Count(t, gdb, &models.NIC{}, "device_id = ?", d.ID))
	assert.Equal(t, int64(1), testutil.Count(t, gdb, &models.NIC{}, "mac = ?", "aa:bb:cc:00:11:22"))

	d2, err := m.CreateDevice(ctx, site.ID, DeviceInput{Hostname: "sw-02"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), d2.SIDNumber)

	bad := uint(777)
	_, err = m.CreateDevice(ctx, site.ID, DeviceInput{NICs: []NICInput{{Name: "eth0", VLANID: &bad}}})
	var rerr *models.ReferenceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "nics[0].vlan_id", rerr.Field)

	_, err = m.CreateDevice(ctx, site.ID, DeviceInput{Attributes: []byte(`[1,2]`)})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = m.CreateDevice(ctx, site.ID, DeviceInput{NICs: []NICInput{{Name: "eth0", MAC: "nope"}}})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "nics[0].mac", verr.Field)
}

func TestDevices_ChildrenAndBulkDelete(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")
	other := testutil.Site(t, gdb, "DC2")

	d, err := m.CreateDevice(ctx, site.ID, DeviceInput{Hostname: "srv1", NICs: []NICInput{{Name: "eth0"}}})
	require.NoError(t, err)
	_, err = m.AddNIC(ctx, site.ID, d.ID, NICInput{Name: "eth1"})
	require.NoError(t, err)
	_, err = m.AddNote(ctx, site.ID, d.ID, NoteInput{Body: "rma pending", Author: "ops"})
	require.NoError(t, err)

	_, err = m.AddNote(ctx, other.ID, d.ID, NoteInput{Body: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	deleted, err := m.DeleteDevices(ctx, site.ID, []uint{d.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted[models.RoleNICs])
	assert.Equal(t, int64(1), deleted[models.RoleNotes])
	assert.Equal(t, int64(1), deleted["devices"])
	assert.Zero(t, testutil.Count(t, gdb, &models.NIC{}, "device_id = ?", d.ID))
}

func TestCreateLocation(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")

	in := LocationInput{Input: locschema.Input{Template: models.TemplateRack, Floor: "2", Suite: "b", Row: "r04", Rack: "12"}}
	loc, err := m.CreateLocation(ctx, site.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "2/B/R04/12", loc.Position())

	_, err = m.CreateLocation(ctx, site.ID, in)
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	_, err = m.CreateLocation(ctx, site.ID, LocationInput{Input: locschema.Input{Template: models.TemplateRack, Floor: "2"}})
	assert.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, m.UpdateLocationLabel(ctx, site.ID, loc.ID, "core row"))
	assert.ErrorIs(t, m.UpdateLocationLabel(ctx, site.ID, loc.ID+50, "x"), models.ErrNotFound)
}

func TestCatalog_CreateRenameDuplicate(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")

	e, err := m.CreateCatalogEntry(ctx, site.ID, integrity.TargetDeviceModel, CatalogInput{Name: "DCS-7050", Manufacturer: "Arista"})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Equal(t, "Arista", e.Manufacturer)

	_, err = m.CreateCatalogEntry(ctx, site.ID, integrity.TargetDeviceModel, CatalogInput{Name: "dcs-7050"})
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	require.NoError(t, m.RenameCatalogEntry(ctx, site.ID, integrity.TargetDeviceModel, e.ID, CatalogInput{Name: "DCS-7050SX"}))
	assert.Equal(t, int64(1), testutil.Count(t, gdb, &models.DeviceModel{}, "name = ?", "DCS-7050SX"))

	_, err = m.CreateCatalogEntry(ctx, site.ID, integrity.TargetLocation, CatalogInput{Name: "x"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = m.CreateVLAN(ctx, site.ID, VLANInput{Number: 5000})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteSite(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")
	loc := testutil.RackLocation(t, gdb, site.ID, "01")
	_, err := m.CreateLabel(ctx, site.ID, LabelInput{SourceLocationID: &loc.ID})
	require.NoError(t, err)
	_, err = m.CreateDevice(ctx, site.ID, DeviceInput{LocationID: &loc.ID, NICs: []NICInput{{Name: "eth0"}}})
	require.NoError(t, err)

	_, err = m.DeleteSite(ctx, site.ID, false)
	var inUse *models.InUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, int64(1), inUse.Usage["labels"])
	assert.Equal(t, int64(1), inUse.Usage["locations"])

	deleted, err := m.DeleteSite(ctx, site.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted.Total())
	assert.Equal(t, int64(2), testutil.Count(t, gdb, &models.SequenceCounter{}, "site_id = ?", site.ID))

	_, err = m.AllocateSequence(ctx, site.ID, sequence.KindLabel)
	assert.ErrorIs(t, err, models.ErrSiteNotFound)
	_, err = m.DeleteSite(ctx, site.ID, true)
	assert.ErrorIs(t, err, models.ErrSiteNotFound)
}

func TestDeleteReferencedRow(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")
	a := testutil.RackLocation(t, gdb, site.ID, "01")
	b := testutil.RackLocation(t, gdb, site.ID, "02")
	_, err := m.CreateLabel(ctx, site.ID, LabelInput{SourceLocationID: &a.ID, DestinationLocationID: &a.ID})
	require.NoError(t, err)

	u, err := m.CountUsage(ctx, site.ID, integrity.Target{Kind: integrity.TargetLocation, ID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.Total())

	res, err := m.DeleteReferencedRow(ctx, integrity.Request{
		SiteID: site.ID, Target: integrity.Target{Kind: integrity.TargetLocation, ID: a.ID},
		Strategy: integrity.StrategyReassign, ReplacementID: b.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Usage{models.RoleSource: 1, models.RoleDestination: 1}, res.Reassigned)

	_, err = m.DeleteReferencedRow(ctx, integrity.Request{
		SiteID: 404, Target: integrity.Target{Kind: integrity.TargetLocation, ID: b.ID}, Strategy: integrity.StrategyAuto,
	})
	assert.ErrorIs(t, err, models.ErrSiteNotFound)
}

func TestAllocateSequence(t *testing.T) {
	m, gdb := newManager(t)
	ctx := context.Background()
	site := testutil.Site(t, gdb, "DC1")

	v, err := m.AllocateSequence(ctx, site.ID, sequence.KindDevice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	d, err := m.CreateDevice(ctx, site.ID, DeviceInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.SIDNumber)
}

// Two handles on one file behave like two processes (serve + allocate):
// each has its own single-connection pool, so only SQLite's file lock orders them.
func TestCreateLabel_TwoHandlesOnOneSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labeldesk.db")
	open := func() *gorm.DB {
		gdb, err := db.Open("sqlite", path, db.Options{LogLevel: "silent"})
		require.NoError(t, err)
		t.Cleanup(func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		return gdb
	}
	h1 := open()
	require.NoError(t, db.Migrate(h1))
	h2 := open()
	site := testutil.Site(t, h1, "DC1")
	managers := []*Manager{NewManager(h1), NewManager(h2)}

	const n = 40
	got := make([]int64, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			l, err := managers[i%2].CreateLabel(context.Background(), site.ID, LabelInput{})
			if err != nil {
				return err
			}
			got[i] = l.RefNumber
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := map[int64]bool{}
	for _, v := range got {
		assert.False(t, seen[v], "number %d issued twice", v)
		seen[v] = true
	}
	for v := int64(1); v <= n; v++ {
		assert.True(t, seen[v], "number %d missing", v)
	}
}

func TestCreateSite_CodeReusableAfterDelete(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	s, err := m.CreateSite(ctx, SiteInput{Name: "Lisbon", Code: "lis1"})
	require.NoError(t, err)

	_, err = m.CreateSite(ctx, SiteInput{Name: "Lisbon bis", Code: "LIS1"})
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	_, err = m.DeleteSite(ctx, s.ID, false)
	require.NoError(t, err)

	again, err := m.CreateSite(ctx, SiteInput{Name: "Lisbon", Code: "LIS1"})
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, again.ID)
}
