package store

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/terminus-adherence/internal/common/logger"
	"github.com/terminus-adherence/internal/terminus/parser"
	"github.com/terminus-adherence/pkg/terminus/models"
)

type CSVConfig struct {
	ArrivalsPath   string
	DeparturesPath string
	DownloadDir    string
	Location       *time.Location
}

// CSVSource reads the end-of-route (arrivals) and start-of-route (departures) exports.
// Paths starting with http:// or https:// are downloaded into DownloadDir first.
type CSVSource struct {
	config     CSVConfig
	parser     *parser.Parser
	downloader Downloader
	logger     logger.Logger
}

func NewCSVSource(config CSVConfig, logger logger.Logger) *CSVSource {
	return &CSVSource{
		config:     config,
		parser:     parser.New(logger, config.Location),
		downloader: NewHTTPDownloader(logger),
		logger:     logger,
	}
}

func (s *CSVSource) Load(ctx context.Context) (*models.Dataset, error) {
	arrivals, err := s.loadFile(ctx, s.config.ArrivalsPath, models.Arrival)
	if err != nil {
		return nil, fmt.Errorf("loading arrivals: %w", err)
	}
	departures, err := s.loadFile(ctx, s.config.DeparturesPath, models.Departure)
	if err != nil {
		return nil, fmt.Errorf("loading departures: %w", err)
	}

	return &models.Dataset{
		Arrivals:   arrivals,
		Departures: departures,
		LoadedAt:   time.Now(),
	}, nil
}

// Paths returns the local files backing this source. Remote URLs are not included.
func (s *CSVSource) Paths() []string {
	var paths []string
	for _, p := range []string{s.config.ArrivalsPath, s.config.DeparturesPath} {
		if !isRemote(p) {
			paths = append(paths, p)
		}
	}
	return paths
}

func (s *CSVSource) loadFile(ctx context.Context, location string, role models.Role) ([]models.TerminusEvent, error) {
	if !isRemote(location) {
		return s.parser.ParseFile(ctx, location, role)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = string(role) + "s.csv"
	}
	dest := filepath.Join(s.config.DownloadDir, fmt.Sprintf("%s_%s", role, name))

	if err := s.downloader.Download(ctx, location, dest); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", location, err)
	}
	return s.parser.ParseFile(ctx, dest, role)
}

func isRemote(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}
