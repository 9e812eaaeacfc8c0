package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/pageza/homefoods/backend/config"
	"github.com/pageza/homefoods/backend/internal/importer"
	"github.com/pageza/homefoods/backend/internal/query"
	"github.com/pageza/homefoods/backend/internal/service"
	"github.com/pageza/homefoods/backend/internal/types"
)

func migrateCmd() *Command {
	return &Command{
		Flags: flag.NewFlagSet("migrate", flag.ContinueOnError),
		Usage: "migrate",
		Short: "Create the food item table or collection indexes",
		Exec: func(ctx context.Context, e *env, _ []string) error {
			if _, err := e.open(ctx, true); err != nil {
				return err
			}
			e.logger.Info("store migrated", "driver", e.cfg.StoreDriver)
			return nil
		},
	}
}

func listCmd() *Command {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	filter := fs.StringP("filter", "f", "", `JSON filter, e.g. '{"price": {"$gt": 100}}'`)
	selectFields := fs.String("select", "", `Fields to return, e.g. "name price"`)
	sortSpec := fs.String("sort", "", `Sort order, e.g. "-price name"`)
	skip := fs.Int64("skip", 0, "Skip the first N matches")
	limit := fs.Int64("limit", 0, "Return at most N matches (0 for all)")
	count := fs.Bool("count", false, "Print the number of matches only")
	format := fs.String("format", string(importer.FormatJSON), "Output format: json or yaml")

	return &Command{
		Flags: fs,
		Usage: "list [flags]",
		Short: "List food items",
		Exec: func(ctx context.Context, e *env, _ []string) error {
			f, err := query.ParseFilter([]byte(*filter))
			if err != nil {
				return err
			}
			foods, err := e.open(ctx, false)
			if err != nil {
				return err
			}

			if *count {
				n, err := foods.Count(ctx, f)
				if err != nil {
					return err
				}
				fmt.Fprintln(e.out, n)
				return nil
			}

			q := query.New().Select(*selectFields).SortBy(*sortSpec).SkipN(*skip).LimitN(*limit)
			if f != nil {
				q.Where(f)
			}
			items, err := foods.Find(ctx, q)
			if err != nil {
				return err
			}
			switch importer.Format(*format) {
			case importer.FormatJSON, importer.FormatYAML:
				return importer.Encode(e.out, items, importer.Format(*format))
			}
			return fmt.Errorf("%w: %q", importer.ErrUnsupportedFormat, *format)
		},
	}
}

func importCmd() *Command {
	return &Command{
		Flags: flag.NewFlagSet("import", flag.ContinueOnError),
		Usage: "import FILE",
		Short: "Insert the food items in an .xlsx, .yaml or .json file",
		Exec: func(ctx context.Context, e *env, args []string) error {
			if len(args) != 1 {
				return errors.New("import takes exactly one file")
			}
			format, err := importer.FormatFromName(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			items, err := importer.Decode(f, format)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			foods, err := e.open(ctx, true)
			if err != nil {
				return err
			}
			report, err := foods.Import(ctx, items)
			if err != nil {
				return err
			}

			for _, failure := range report.Failures {
				for path, msg := range failure.Errors {
					fmt.Fprintf(e.errOut, "row %d (%s): %s: %s\n", failure.Row, failure.Name, path, msg)
				}
			}
			fmt.Fprintf(e.out, "imported %d of %d food items\n", len(report.Inserted), len(items))
			return nil
		},
	}
}

func exportCmd() *Command {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	s3Key := fs.String("s3-key", "", "Also upload the snapshot to the configured bucket under this key")
	urlTTL := fs.Duration("url-ttl", 0, "Print a download link valid this long after uploading")

	return &Command{
		Flags: fs,
		Usage: "export FILE [flags]",
		Short: "Write every food item to an .xlsx, .yaml or .json file",
		Exec: func(ctx context.Context, e *env, args []string) error {
			if len(args) != 1 {
				return errors.New("export takes exactly one file")
			}
			foods, err := e.open(ctx, false)
			if err != nil {
				return err
			}
			items, err := foods.Find(ctx, query.New())
			if err != nil {
				return err
			}
			if err := importer.WriteFile(args[0], items); err != nil {
				return err
			}
			e.logger.Info("menu exported", "file", args[0], "items", len(items))

			if *s3Key == "" {
				return nil
			}
			bucket, err := config.NewS3Config(ctx, e.cfg)
			if err != nil {
				return err
			}
			if err := importer.Publish(ctx, bucket, *s3Key, items); err != nil {
				return err
			}
			e.logger.Info("menu uploaded", "bucket", bucket.BucketName, "key", *s3Key)
			if *urlTTL > 0 {
				link, err := bucket.GeneratePresignedURL(ctx, *s3Key, *urlTTL)
				if err != nil {
					return err
				}
				fmt.Fprintln(e.out, link)
			}
			return nil
		},
	}
}

func tokenCmd() *Command {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "foodctl", "Token subject")
	role := fs.String("role", types.RoleAdmin, "Role claim")
	ttl := fs.Duration("ttl", service.DefaultTokenTTL, "Token lifetime")

	return &Command{
		Flags: fs,
		Usage: "token [flags]",
		Short: "Print a bearer token for the write API",
		Exec: func(_ context.Context, e *env, _ []string) error {
			token, err := service.NewAuthService(e.cfg.JWTSecret, *ttl).GenerateToken(*subject, *role)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, token)
			e.logger.Debug("token issued", "subject", *subject, "role", *role, "expires", time.Now().Add(*ttl).Format(time.RFC3339))
			return nil
		},
	}
}
