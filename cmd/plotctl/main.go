package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	geojsonadapter "github.com/samirrijal/plotfit/internal/adapters/geojson"
	natsadapter "github.com/samirrijal/plotfit/internal/adapters/nats"
	"github.com/samirrijal/plotfit/internal/adapters/postgres"
	"github.com/samirrijal/plotfit/internal/adapters/regrid"
	"github.com/samirrijal/plotfit/internal/adapters/valkey"
	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/core/ports"
	"github.com/samirrijal/plotfit/internal/core/usecases"
	"github.com/samirrijal/plotfit/internal/pkg/config"
	"github.com/samirrijal/plotfit/internal/pkg/logging"
)

// errRejected makes validate exit non-zero for rejected placements.
var errRejected = errors.New("placement rejected")

type rootOptions struct {
	verbose bool
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "plotctl",
		Short:         "Inspect and operate overlay placements",
		Long:          `plotctl validates candidate overlay placements against parcel polygons, remaps dragged rectangles to geographic bounds, fetches parcels and manages persisted overlay bounds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logging.Setup("plotctl", level, "text")

			cfg, err := config.Load("plotctl")
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newValidateCmd(opts),
		newRemapCmd(),
		newFetchCmd(opts),
		newBoundsCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ---------------------------------------------------------------------------
// Parcel sources
// ---------------------------------------------------------------------------

type sourceFlags struct {
	parcels      string
	providerName string
	lat, lon     float64
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.parcels, "parcels", "p", "", "GeoJSON FeatureCollection to read parcels from")
	cmd.Flags().StringVar(&f.providerName, "provider", "", "Parcel provider when --parcels is not given (regrid, postgis, file)")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Latitude to fetch parcels around")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "Longitude to fetch parcels around")
}

// provider picks the parcel source: --parcels first, then the configured
// provider. The returned close function releases any connection.
func (f *sourceFlags) provider(ctx context.Context, cfg *config.Config) (ports.PolygonProvider, func(), error) {
	noop := func() {}
	if f.parcels != "" {
		return geojsonadapter.NewFileProvider(f.parcels, 0), noop, nil
	}

	name := f.providerName
	if name == "" {
		name = cfg.Parcels.Provider
	}
	switch name {
	case config.ProviderRegrid:
		return regrid.NewClient(cfg.Parcels.BaseURL, cfg.Parcels.Token, cfg.Parcels.Timeout), noop, nil
	case config.ProviderFile:
		return geojsonadapter.NewFileProvider(cfg.Parcels.File, cfg.Parcels.SearchRadiusM), noop, nil
	case config.ProviderPostGIS:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		return postgres.NewParcelRepo(db, cfg.Parcels.SearchRadiusM), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", name)
	}
}

// point is --lat/--lon, or fallback when neither is set.
func (f *sourceFlags) point(fallback domain.GeoPoint) domain.GeoPoint {
	if f.lat == 0 && f.lon == 0 {
		return fallback
	}
	return domain.GeoPoint{Lat: f.lat, Lon: f.lon}
}

// ---------------------------------------------------------------------------
// validate
// ---------------------------------------------------------------------------

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		src       sourceFlags
		bounds    string
		tolerance float64
		fullScan  bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check whether bounds lie strictly inside one parcel",
		Long:  `Fetch the parcels around the bounds (or --lat/--lon) and print the containment verdict. Exits non-zero when the placement is rejected.`,
		Example: `  plotctl validate --bounds 37.774,-122.42,37.776,-122.418 --parcels lots.geojson
  plotctl validate --bounds 32.7765,-96.797,32.7767,-96.7968 --provider regrid`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseBounds(bounds)
			if err != nil {
				return err
			}
			if tolerance <= 0 {
				tolerance = opts.cfg.Overlay.Tolerance
			}

			ctx := cmd.Context()
			provider, closeFn, err := src.provider(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			ref := src.point(b.Center())
			polygons, err := provider.FetchPolygons(ctx, ref.Lat, ref.Lon)
			if err != nil {
				return fmt.Errorf("fetch parcels: %w", err)
			}

			var vopts []usecases.ValidatorOption
			if fullScan {
				vopts = append(vopts, usecases.WithFullScan())
			}
			set := usecases.NewPolygonSet(polygons, ref, tolerance)
			verdict := usecases.NewContainmentValidator(tolerance, vopts...).Validate(b, set)

			if err := writeJSON(cmd.OutOrStdout(), struct {
				Bounds   domain.OverlayBounds `json:"bounds"`
				BBox     string               `json:"bbox"`
				Polygons int                  `json:"polygons"`
				Verdict  domain.Verdict       `json:"verdict"`
			}{b, b.BBoxString(), set.Len(), verdict}); err != nil {
				return err
			}
			if !verdict.Valid {
				return fmt.Errorf("%w: %s", errRejected, verdict.Reason)
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&bounds, "bounds", "b", "", "Candidate bounds as swLat,swLon,neLat,neLon")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Touch tolerance in degrees (default from config)")
	cmd.Flags().BoolVar(&fullScan, "full-scan", false, "Check every polygon instead of using the bounding-box index")
	_ = cmd.MarkFlagRequired("bounds")
	return cmd
}

// ---------------------------------------------------------------------------
// remap
// ---------------------------------------------------------------------------

func newRemapCmd() *cobra.Command {
	var bounds, rect, center string

	cmd := &cobra.Command{
		Use:   "remap",
		Short: "Compute the bounds an overlay gets when its rectangle is re-centred",
		Example: `  plotctl remap --bounds 37.774,-122.42,37.776,-122.418 --rect 100,100,200,100 --center 37.7755,-122.4185`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseBounds(bounds)
			if err != nil {
				return err
			}
			r, err := parseRect(rect)
			if err != nil {
				return err
			}
			c, err := parsePoint(center)
			if err != nil {
				return err
			}

			out, err := usecases.RemapBounds(b, r, c)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Bounds domain.OverlayBounds `json:"bounds"`
				BBox   string               `json:"bbox"`
			}{out, out.BBoxString()})
		},
	}
	cmd.Flags().StringVarP(&bounds, "bounds", "b", "", "Bounds before the drag as swLat,swLon,neLat,neLon")
	cmd.Flags().StringVarP(&rect, "rect", "r", "", "Overlay pixel rectangle at drag start as left,top,width,height")
	cmd.Flags().StringVarP(&center, "center", "c", "", "New centre as lat,lon")
	for _, name := range []string{"bounds", "rect", "center"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// ---------------------------------------------------------------------------
// fetch
// ---------------------------------------------------------------------------

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var (
		src sourceFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch parcels around a point and write them as GeoJSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			provider, closeFn, err := src.provider(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			p := src.point(opts.cfg.Map.Reference())
			start := time.Now()
			polygons, err := provider.FetchPolygons(ctx, p.Lat, p.Lon)
			if err != nil {
				return fmt.Errorf("fetch parcels: %w", err)
			}

			data, err := geojsonadapter.EncodeFeatureCollection(polygons)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d parcels around %.6f,%.6f to %s in %v\n",
				len(polygons), p.Lat, p.Lon, out, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

// ---------------------------------------------------------------------------
// bounds
// ---------------------------------------------------------------------------

func newBoundsCmd(opts *rootOptions) *cobra.Command {
	var storage string

	openStore := func(ctx context.Context) (ports.BoundsStore, func(), error) {
		cfg := opts.cfg
		name := storage
		if name == "" {
			name = cfg.Overlay.Storage
		}
		switch name {
		case config.StorageValkey:
			cache, err := valkey.New(cfg.Valkey.Addr)
			if err != nil {
				return nil, nil, fmt.Errorf("valkey: %w", err)
			}
			return valkey.NewBoundsStore(cache, cfg.Overlay.StorageKey), cache.Close, nil
		case config.StoragePostgres:
			db, err := postgres.New(ctx, cfg.Database.DSN())
			if err != nil {
				return nil, nil, fmt.Errorf("database: %w", err)
			}
			return postgres.NewOverlayRepo(db, cfg.Overlay.ID), db.Close, nil
		default:
			return nil, nil, fmt.Errorf("storage %q cannot be reached from the CLI", name)
		}
	}

	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Read or replace the persisted overlay bounds",
	}
	cmd.PersistentFlags().StringVar(&storage, "storage", "", "Bounds storage (valkey, postgres; default from config)")

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the persisted bounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			b, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), b)
		},
	}

	set := &cobra.Command{
		Use:   "set swLat,swLon,neLat,neLon",
		Short: "Replace the persisted bounds without validation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseBounds(args[0])
			if err != nil {
				return err
			}
			store, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := store.Save(cmd.Context(), b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "stored %s\n", b.BBoxString())
			return nil
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

// ---------------------------------------------------------------------------
// watch
// ---------------------------------------------------------------------------

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var overlayID, durable string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream placement events from NATS JetStream",
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := natsadapter.NewSubscriber(opts.cfg.NATS.URL)
			if err != nil {
				return err
			}
			defer sub.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := cmd.OutOrStdout()
			err = sub.SubscribePlacements(ctx, overlayID, durable, func(ctx context.Context, ev *domain.PlacementEvent) error {
				line := fmt.Sprintf("%s %-10s %-9s %s", ev.Time.Format(time.RFC3339), ev.OverlayID, ev.Outcome, ev.Bounds.BBoxString())
				if ev.Reason != "" {
					line += " (" + string(ev.Reason) + ")"
				}
				_, err := fmt.Fprintln(w, line)
				return err
			})
			if err != nil {
				return err
			}

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&overlayID, "overlay", "", "Overlay id to watch (default all)")
	cmd.Flags().StringVar(&durable, "durable", "", "Durable consumer name to resume from")
	return cmd
}
