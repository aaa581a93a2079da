package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"labeldesk/internal/logs"
	"labeldesk/internal/models"
	"labeldesk/internal/sequence"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NICInput struct {
	Name   string `json:"name" validate:"required,max=64"`
	MAC    string `json:"mac" validate:"omitempty,mac"`
	VLANID *uint  `json:"vlan_id" validate:"omitempty,min=1"`
}

type DeviceInput struct {
	Hostname      string         `json:"hostname" validate:"omitempty,max=255,hostname_rfc1123"`
	Serial        string         `json:"serial" validate:"max=128"`
	LocationID    *uint          `json:"location_id" validate:"omitempty,min=1"`
	SIDTypeID     *uint          `json:"sid_type_id" validate:"omitempty,min=1"`
	DeviceModelID *uint          `json:"device_model_id" validate:"omitempty,min=1"`
	CPUModelID    *uint          `json:"cpu_model_id" validate:"omitempty,min=1"`
	Attributes    datatypes.JSON `json:"attributes"`
	NICs          []NICInput     `json:"nics" validate:"max=64,dive"`
}

func (in DeviceInput) refs() []refCheck {
	return []refCheck{
		{"location_id", &models.Location{}, in.LocationID},
		{"sid_type_id", &models.SIDType{}, in.SIDTypeID},
		{"device_model_id", &models.DeviceModel{}, in.DeviceModelID},
		{"cpu_model_id", &models.CPUModel{}, in.CPUModelID},
	}
}

func nicRows(siteID, deviceID uint, in []NICInput) []models.NIC {
	out := make([]models.NIC, 0, len(in))
	for _, n := range in {
		out = append(out, models.NIC{
			SiteID:   siteID,
			DeviceID: deviceID,
			Name:     strings.TrimSpace(n.Name),
			MAC:      strings.ToLower(n.MAC),
			VLANID:   n.VLANID,
		})
	}
	return out
}

// CreateDevice issues the next SID of the site and stores the device with its NICs.
func (m *Manager) CreateDevice(ctx context.Context, siteID uint, in DeviceInput) (*models.Device, error) {
	in.Hostname = strings.TrimSpace(in.Hostname)
	if err := m.check(in); err != nil {
		return nil, err
	}
	if len(in.Attributes) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(in.Attributes, &obj); err != nil {
			return nil, models.Invalid("attributes", "must be a JSON object")
		}
	}

	var d models.Device
	err := m.createWithRetry(ctx, siteID, sequence.KindDevice, func(tx *gorm.DB) error {
		if _, err := lockSite(tx, siteID); err != nil {
			return err
		}
		refs := in.refs()
		for i, n := range in.NICs {
			refs = append(refs, refCheck{fmt.Sprintf("nics[%d].vlan_id", i), &models.VLAN{}, n.VLANID})
		}
		if err := checkRefs(tx, siteID, refs...); err != nil {
			return err
		}
		n, err := m.alloc.Next(tx, siteID, sequence.KindDevice)
		if err != nil {
			return err
		}
		d = models.Device{
			SiteID:        siteID,
			SIDNumber:     n,
			Hostname:      in.Hostname,
			Serial:        in.Serial,
			LocationID:    in.LocationID,
			SIDTypeID:     in.SIDTypeID,
			DeviceModelID: in.DeviceModelID,
			CPUModelID:    in.CPUModelID,
			Attributes:    in.Attributes,
		}
		if err := tx.Create(&d).Error; err != nil {
			return err
		}
		if len(in.NICs) == 0 {
			return nil
		}
		nics := nicRows(siteID, d.ID, in.NICs)
		return tx.Create(&nics).Error
	})
	if err != nil {
		return nil, err
	}
	logs.Site(siteID).WithFields(logrus.Fields{"sid": d.DisplayID(), "id": d.ID, "nics": len(in.NICs)}).Info("device created")
	return &d, nil
}

func (m *Manager) AddNIC(ctx context.Context, siteID, deviceID uint, in NICInput) (*models.NIC, error) {
	if err := m.check(in); err != nil {
		return nil, err
	}
	var nic models.NIC
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deviceInSite(tx, siteID, deviceID); err != nil {
			return err
		}
		if err := checkRefs(tx, siteID, refCheck{"vlan_id", &models.VLAN{}, in.VLANID}); err != nil {
			return err
		}
		nic = nicRows(siteID, deviceID, []NICInput{in})[0]
		return tx.Create(&nic).Error
	})
	if err != nil {
		return nil, err
	}
	return &nic, nil
}

type NoteInput struct {
	Body   string `json:"body" validate:"required,max=4000"`
	Author string `json:"author" validate:"max=128"`
}

func (m *Manager) AddNote(ctx context.Context, siteID, deviceID uint, in NoteInput) (*models.Note, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := m.check(in); err != nil {
		return nil, err
	}
	note := models.Note{SiteID: siteID, DeviceID: deviceID, Body: in.Body, Author: in.Author}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deviceInSite(tx, siteID, deviceID); err != nil {
			return err
		}
		return tx.Create(&note).Error
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteDevices removes the given devices with their NICs and notes. Any id
// outside the site fails the whole request.
func (m *Manager) DeleteDevices(ctx context.Context, siteID uint, ids []uint) (models.Usage, error) {
	deleted := models.Usage{}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uniq, err := lockIDs(tx, siteID, &models.Device{}, ids)
		if err != nil {
			return err
		}
		return inBatches(uniq, func(part []uint) error {
			for _, c := range []struct {
				role  models.Role
				model any
			}{
				{models.RoleNICs, &models.NIC{}},
				{models.RoleNotes, &models.Note{}},
			} {
				d := tx.Where("device_id IN ?", part).Delete(c.model)
				if d.Error != nil {
					return d.Error
				}
				deleted.Add(c.role, d.RowsAffected)
			}
			d := tx.Where("site_id = ? AND id IN ?", siteID, part).Delete(&models.Device{})
			deleted.Add("devices", d.RowsAffected)
			return d.Error
		})
	})
	if err != nil {
		return nil, err
	}
	logs.Site(siteID).WithField("deleted", deleted).Info("devices deleted")
	return deleted, nil
}

// deviceInSite share-locks the device so it cannot disappear under a new child row.
func deviceInSite(tx *gorm.DB, siteID, deviceID uint) error {
	err := checkRefs(tx, siteID, refCheck{"device_id", &models.Device{}, &deviceID})
	if errors.Is(err, models.ErrInvalidReference) {
		return fmt.Errorf("device %d: %w", deviceID, models.ErrNotFound)
	}
	return err
}
