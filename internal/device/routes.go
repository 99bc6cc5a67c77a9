package device

import (
	"fmt"

	"terracurve/internal/config"
	"terracurve/internal/models"
)

// Routes maps gateway operations to controller paths. An empty path means
// the firmware does not offer the operation.
type Routes struct {
	Config           string
	Yearly           string
	DownloadSeasonal string
	DayGet           string
	DaySave          string
	ApplyYearlyCurve string
	SmoothMonth      string
	SaveYearly       string
	UploadYearly     string
	Profiles         string
	LoadProfile      string
	SaveProfile      string
	DeleteProfile    string
	ActivateProfile  string
	RenameProfile    string

	// ConfigScale is the unit of setpoint and global bounds in config and
	// profile documents.
	ConfigScale models.TempScale
}

// ModernRoutes is the /api surface of current firmware.
var ModernRoutes = Routes{
	Config:           "/api/config",
	Yearly:           "/api/seasonal/yearly",
	DownloadSeasonal: "/download/seasonal",
	DayGet:           "/api/seasonal/day",
	DaySave:          "/api/seasonal/day",
	ApplyYearlyCurve: "/api/applyYearlyCurve",
	SmoothMonth:      "/api/seasonal/smooth",
	SaveYearly:       "/saveYearlyTemperatures",
	UploadYearly:     "/api/seasonal/yearly",
	Profiles:         "/api/profiles",
	LoadProfile:      "/api/profiles/load",
	SaveProfile:      "/api/profiles/save",
	DeleteProfile:    "/api/profiles/delete",
	ActivateProfile:  "/api/profiles/activate",
	RenameProfile:    "/api/profiles/rename",
	ConfigScale:      models.Tenths,
}

// LegacyRoutes is the flat surface of older firmware.
var LegacyRoutes = Routes{
	Config:           "/getCurrentConfig",
	Yearly:           "/getYearlyTemperatures",
	DaySave:          "/saveDayData",
	ApplyYearlyCurve: "/applyYearlyCurve",
	SmoothMonth:      "/smoothMonthData",
	SaveYearly:       "/saveYearlyTemperatures",
	Profiles:         "/listProfiles",
	LoadProfile:      "/loadProfile",
	SaveProfile:      "/saveProfile",
	DeleteProfile:    "/deleteProfile",
	ActivateProfile:  "/activateProfile",
	RenameProfile:    "/renameProfile",
	ConfigScale:      models.Degrees,
}

// RoutesFor returns the route table for a configured API flavour.
func RoutesFor(api string) (Routes, error) {
	switch api {
	case config.DeviceAPIModern:
		return ModernRoutes, nil
	case config.DeviceAPILegacy:
		return LegacyRoutes, nil
	}
	return Routes{}, fmt.Errorf("unknown device api %q", api)
}
