package detectionService

import (
	"PotholeGolang/internal/entity"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/context"
)

// enrichLocation resolves the human-readable address for loc in place and,
// when withMap is set, renders a static map pinned at the highest severity.
// Both lookups run concurrently and are best-effort: a provider failure is
// logged and the report falls back to bare coordinates.
func (s *detectionService) enrichLocation(ctx context.Context, loc *entity.Location, severity entity.Severity, withMap bool) *entity.ImageArtifact {
	if loc == nil || s.mapbox == nil || !s.mapbox.Enabled() {
		return nil
	}

	var wg sync.WaitGroup
	var mapArtifact *entity.ImageArtifact

	wg.Add(1)
	go func() {
		defer wg.Done()
		address, err := s.mapbox.ReverseGeocode(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			s.log.Warnf("reverse geocode failed for (%f, %f): %v", loc.Latitude, loc.Longitude, err)
			return
		}
		loc.Address = address
	}()

	if withMap {
		wg.Add(1)
		go func() {
			defer wg.Done()
			image, err := s.mapbox.StaticMap(ctx, loc.Latitude, loc.Longitude, severity)
			if err != nil {
				s.log.Warnf("static map render failed for (%f, %f): %v", loc.Latitude, loc.Longitude, err)
				return
			}
			path, err := s.saveMapImage(image)
			if err != nil {
				s.log.Warnf("static map save failed: %v", err)
				return
			}
			mapArtifact = &entity.ImageArtifact{
				Path:      path,
				Bytes:     image,
				ContentID: "location_map",
			}
		}()
	}

	wg.Wait()
	return mapArtifact
}

func (s *detectionService) saveMapImage(image []byte) (string, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("map_%s.png", strings.ReplaceAll(uuid.NewString(), "-", ""))
	path := filepath.Join(s.cfg.OutputDir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
