package profile

import (
	"context"
	"fmt"

	"terracurve/internal/codec"
	"terracurve/internal/device"
	"terracurve/internal/events"
	"terracurve/internal/metrics"
	"terracurve/internal/models"
	"terracurve/internal/seasonal"

	"go.uber.org/zap"
)

// selected returns the selected day and its working curve.
func (c *Coordinator) selected() (int, models.DayCurve, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	day, ok := c.store.Selected()
	if !ok {
		return 0, models.DayCurve{}, seasonal.ErrNoDaySelected
	}
	return day, c.store.Working().Curve(), nil
}

// SaveDay sends the selected day's working curve to the controller and
// commits it to the matrix once the controller accepted it.
func (c *Coordinator) SaveDay(ctx context.Context) (day int, err error) {
	defer func() { metrics.RecordProfileOperation("save_day", err) }()

	done, err := c.begin()
	if err != nil {
		return 0, err
	}
	defer done()

	day, curve, err := c.selected()
	if err != nil {
		return 0, err
	}
	if err := c.gw.SaveDay(ctx, day, curve); err != nil {
		return day, fmt.Errorf("save day %d: %w", day, err)
	}

	c.mu.Lock()
	_, err = c.store.CommitSelectedDay()
	name := c.current
	c.mu.Unlock()
	if err != nil {
		return day, err
	}

	c.publish(ctx, models.EventDayCommitted, name, events.Day(day), models.DayLabel(day))
	return day, nil
}

// ApplyToYear copies the selected day's working curve onto every day, on
// the controller and locally. It refuses without confirm.
func (c *Coordinator) ApplyToYear(ctx context.Context, confirm bool) (err error) {
	defer func() { metrics.RecordProfileOperation("apply_year", err) }()

	if !confirm {
		return ErrConfirmationRequired
	}
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	_, curve, err := c.selected()
	if err != nil {
		return err
	}
	if err := c.gw.ApplyYearlyCurve(ctx, curve); err != nil {
		return fmt.Errorf("apply curve to year: %w", err)
	}

	c.mu.Lock()
	c.store.ApplyCurveToEntireYear(curve)
	name := c.current
	c.mu.Unlock()

	c.publish(ctx, models.EventYearApplied, name, nil, "")
	return nil
}

// guardMonth refuses a month edit that would reload uncommitted edits of
// the selected day, unless discard is set. The op lock must be held.
func (c *Coordinator) guardMonth(month int, discard bool) error {
	first, last, err := models.MonthRange(month)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	day, ok := c.store.Selected()
	if ok && day >= first && day <= last && c.store.Dirty() && !discard {
		return fmt.Errorf("%w: %s", ErrUnsavedChanges, models.DayLabel(day))
	}
	return nil
}

// SmoothMonth smooths month (0..11) on the controller, then locally.
// Firmware without month smoothing gets the locally smoothed year uploaded
// instead.
func (c *Coordinator) SmoothMonth(ctx context.Context, month int, discard bool) (err error) {
	defer func() { metrics.RecordProfileOperation("smooth_month", err) }()

	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()
	if err := c.guardMonth(month, discard); err != nil {
		return err
	}

	smooth := func(s *seasonal.Store) error { return s.SmoothMonth(month) }
	if err := c.gw.SmoothMonth(ctx, month); err != nil {
		if !device.IsNotImplemented(err) {
			return fmt.Errorf("smooth month %d: %w", month, err)
		}
		c.log.Info("controller cannot smooth months, uploading the smoothed year", zap.Int("month", month))
		return c.uploadMonthEdit(ctx, "smoothed", month, smooth)
	}

	c.mu.Lock()
	err = smooth(c.store)
	name := c.current
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.publish(ctx, models.EventMonthChanged, name, nil, fmt.Sprintf("smoothed month %d", month))
	return nil
}

// CapMonth limits a month to [min, max]. The controller has no month cap,
// so the resulting year is uploaded whole before the session changes.
func (c *Coordinator) CapMonth(ctx context.Context, month int, min, max float64, discard bool) (changed int, err error) {
	defer func() { metrics.RecordProfileOperation("cap_month", err) }()
	err = c.monthEdit(ctx, "capped", month, discard, func(s *seasonal.Store) error {
		changed, err = s.CapMonth(month, min, max)
		return err
	})
	return changed, err
}

// CopyDayToMonth copies day src onto every day of month, uploading the
// resulting year before the session changes.
func (c *Coordinator) CopyDayToMonth(ctx context.Context, src, month int, discard bool) (err error) {
	defer func() { metrics.RecordProfileOperation("copy_day", err) }()
	return c.monthEdit(ctx, fmt.Sprintf("copied %s to", models.DayLabel(src)), month, discard, func(s *seasonal.Store) error {
		return s.CopyDayToMonth(src, month)
	})
}

func (c *Coordinator) monthEdit(ctx context.Context, verb string, month int, discard bool, edit func(*seasonal.Store) error) error {
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()
	if err := c.guardMonth(month, discard); err != nil {
		return err
	}
	return c.uploadMonthEdit(ctx, verb, month, edit)
}

// uploadMonthEdit applies edit to a scratch copy, uploads the result, and
// then applies the same edit to the session store. The op lock must be held.
func (c *Coordinator) uploadMonthEdit(ctx context.Context, verb string, month int, edit func(*seasonal.Store) error) error {
	c.mu.Lock()
	scratch := seasonal.NewStore(c.store.Bounds(), models.DefaultTemperature)
	scratch.Load(c.store.Matrix())
	name := c.current
	c.mu.Unlock()

	if err := edit(scratch); err != nil {
		return err
	}
	blob, clamped := codec.Encode(scratch.Matrix())
	metrics.RecordClamped(clamped)
	if err := c.gw.UploadYearly(ctx, name, blob); err != nil {
		return fmt.Errorf("upload seasonal data: %w", err)
	}

	c.mu.Lock()
	err := edit(c.store)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.publish(ctx, models.EventMonthChanged, name, nil, fmt.Sprintf("%s month %d", verb, month))
	return nil
}

// SetBounds changes the shared safety range and re-clamps the working
// curve. It returns how many working hours moved.
func (c *Coordinator) SetBounds(ctx context.Context, min, max float64) (int, error) {
	clamped := 0
	err := c.Exclusive(func(s *seasonal.Store) error {
		if err := s.Bounds().Set(min, max); err != nil {
			return err
		}
		if w := s.Working(); w != nil {
			clamped = w.ReapplyBounds()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	name, _ := c.Current()
	c.publish(ctx, models.EventBoundsChanged, name, nil, fmt.Sprintf("%.1f..%.1f", min, max))
	return clamped, nil
}

// ListProfiles returns the names stored on the controller.
func (c *Coordinator) ListProfiles(ctx context.Context) ([]string, error) {
	names, err := c.gw.ListProfiles(ctx)
	metrics.RecordProfileOperation("list", err)
	return names, err
}

// ActivateProfile switches the controller's running profile without
// touching the session.
func (c *Coordinator) ActivateProfile(ctx context.Context, name string) (err error) {
	defer func() { metrics.RecordProfileOperation("activate", err) }()
	if err := ValidateName(name); err != nil {
		return err
	}
	return c.gw.ActivateProfile(ctx, name)
}

// DeleteProfile removes a stored profile. Deleting the loaded profile
// keeps the session data but forgets its name.
func (c *Coordinator) DeleteProfile(ctx context.Context, name string) (err error) {
	defer func() { metrics.RecordProfileOperation("delete", err) }()
	if err := ValidateName(name); err != nil {
		return err
	}
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := c.gw.DeleteProfile(ctx, name); err != nil {
		return fmt.Errorf("delete profile %s: %w", name, err)
	}

	c.mu.Lock()
	if c.current == name {
		c.current = ""
	}
	c.mu.Unlock()

	c.log.Info("profile deleted", zap.String("profile", name))
	c.publish(ctx, models.EventProfileDeleted, name, nil, "")
	return nil
}

// RenameProfile renames a stored profile and follows the rename locally.
func (c *Coordinator) RenameProfile(ctx context.Context, from, to string) (err error) {
	defer func() { metrics.RecordProfileOperation("rename", err) }()
	if err := ValidateName(from); err != nil {
		return err
	}
	if err := ValidateName(to); err != nil {
		return err
	}
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := c.gw.RenameProfile(ctx, from, to); err != nil {
		return fmt.Errorf("rename profile %s: %w", from, err)
	}

	c.mu.Lock()
	if c.current == from {
		c.current = to
		c.config.Name = to
	}
	c.mu.Unlock()

	c.publish(ctx, models.EventProfileRenamed, to, nil, "renamed from "+from)
	return nil
}
