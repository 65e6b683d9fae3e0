package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-fieldbind"
	"github.com/goliatone/go-fieldbind/internal/config"
	"github.com/goliatone/go-fieldbind/internal/observability"
	"github.com/goliatone/go-fieldbind/pkg/activity"
	"github.com/goliatone/go-fieldbind/pkg/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries what the subcommands share once the root command has loaded
// configuration.
type app struct {
	cfgFile  string
	actor    string
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.Store
	resolver *fieldbind.Resolver
	emitter  *activity.Emitter
	close    func()
}

func newRootCmd() *cobra.Command {
	a := &app{close: func() {}}

	root := &cobra.Command{
		Use:           "fieldbind",
		Short:         "Inspect and edit persisted binding values.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml or ~/.fieldbind/config.yaml)")
	flags.String("backend", "", "store backend: memory, file or postgres")
	flags.String("path", "", "document path for the file backend")
	flags.String("format", "", "document format for the file backend: yaml or json")
	flags.String("database-url", "", "connection string for the postgres backend")
	flags.String("scope", "", "scope used to build persistence keys")
	flags.String("log-level", "", "log level")
	flags.Bool("strict", false, "reject lossy numeric conversions when setting values")
	flags.Bool("activity", false, "log binding activity events")
	flags.StringVar(&a.actor, "actor", "", "actor recorded on activity events")

	root.AddCommand(
		newKeysCmd(a),
		newKeyCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newDefaultCmd(a),
		newResetDefaultCmd(a),
		newDeleteCmd(a),
	)
	return root
}

var flagKeys = map[string]string{
	"backend":      "store.backend",
	"path":         "store.path",
	"format":       "store.format",
	"database-url": "store.postgres.url",
	"scope":        "binding.scope",
	"log-level":    "logger.level",
	"strict":       "binding.strict_narrowing",
	"activity":     "activity.enabled",
}

func (a *app) setup(cmd *cobra.Command) error {
	v := config.NewViper(a.cfgFile)
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	cfg, err := config.LoadViper(v, a.cfgFile != "")
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(cfg.Logger, zapcore.AddSync(cmd.ErrOrStderr()))
	a.resolver = fieldbind.NewResolver(fieldbind.WithStrictNarrowing(cfg.Binding.StrictNarrowing))
	a.emitter = activity.NewEmitter(activity.Hooks{logActivity(a.logger)}, cfg.Activity)

	s, closeFn, err := openStore(cmd.Context(), cfg.Store, a.logger)
	if err != nil {
		return err
	}
	a.store = s
	a.close = closeFn
	return nil
}

// emit sends a change event for key. Hook failures are logged, the stored
// change stands.
func (a *app) emit(ctx context.Context, event activity.Event) {
	if a.actor != "" {
		ctx = activity.WithActor(ctx, a.actor)
	}
	if err := a.emitter.Emit(ctx, event); err != nil {
		a.logger.Warn("activity hook failed", zap.String("key", event.Key), zap.Error(err))
	}
}

func logActivity(logger *zap.Logger) activity.HookFunc {
	return func(_ context.Context, event activity.Event) error {
		logger.Info("binding activity",
			zap.String("verb", event.Verb),
			zap.String("key", event.Key),
			zap.String("value_kind", event.ValueKind),
			zap.String("old", event.OldValue),
			zap.String("new", event.NewValue),
			zap.String("actor", event.ActorID),
			zap.String("channel", event.Channel),
		)
		return nil
	}
}

func newKeysCmd(a *app) *cobra.Command {
	var withDefaults bool
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List persisted keys and their text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.store.Entries(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				if entry.Default && !withDefaults {
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", entry.Key, entry.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withDefaults, "defaults", false, "include default snapshot slots")
	return cmd
}

func newKeyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "key <label> <member>",
		Short: "Print the persistence key of a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := store.Ref{Scope: a.cfg.Binding.Scope, Label: args[0], Member: args[1]}.Identifier()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	var enumNames string
	cmd := &cobra.Command{
		Use:   "get <key> <kind>",
		Short: "Print the current value of a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vt, err := valueType(args[1], enumNames)
			if err != nil {
				return err
			}
			v, ok, err := a.store.Load(cmd.Context(), args[0], vt)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no %s value stored under %q", vt, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), fieldbind.Format(v))
			return nil
		},
	}
	cmd.Flags().StringVar(&enumNames, "enum", "", "comma separated member names for Enum values")
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	var enumNames, from string
	cmd := &cobra.Command{
		Use:   "set <key> <kind> <text>",
		Short: "Store a value under a key",
		Long: "Store a value under a key. With --from the text is parsed as that kind and\n" +
			"converted into <kind> the way a binding write would convert it; --strict\n" +
			"rejects conversions that lose precision.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := args[0]
			vt, err := valueType(args[1], enumNames)
			if err != nil {
				return err
			}
			src := vt
			if from != "" {
				if src, err = valueType(from, enumNames); err != nil {
					return err
				}
			}
			v, err := fieldbind.Parse(src, args[2])
			if err != nil {
				return err
			}
			if v, err = a.resolver.Convert(v, vt); err != nil {
				return fmt.Errorf("convert %s into %s: %w", src, vt, err)
			}
			previous, _, err := a.store.Text(ctx, key)
			if err != nil {
				return err
			}
			if err := a.store.Save(ctx, key, v); err != nil {
				return err
			}
			a.logger.Info("value stored", zap.String("key", key), zap.Stringer("value", v))
			a.emit(ctx, activity.Event{
				Verb:      activity.VerbValueUpdated,
				Key:       key,
				ValueKind: vt.String(),
				OldValue:  previous,
				NewValue:  fieldbind.Format(v),
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&enumNames, "enum", "", "comma separated member names for Enum values")
	cmd.Flags().StringVar(&from, "from", "", "kind the text is written in, converted into <kind>")
	return cmd
}

func newDefaultCmd(a *app) *cobra.Command {
	var enumNames string
	cmd := &cobra.Command{
		Use:   "default <key> <kind>",
		Short: "Print the default snapshot of a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vt, err := valueType(args[1], enumNames)
			if err != nil {
				return err
			}
			v, ok, err := a.store.RestoreDefault(cmd.Context(), args[0], vt)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no %s default stored for %q", vt, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), fieldbind.Format(v))
			return nil
		},
	}
	cmd.Flags().StringVar(&enumNames, "enum", "", "comma separated member names for Enum values")
	return cmd
}

func newResetDefaultCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-default <key>",
		Short: "Forget the default snapshot so the next binding recaptures it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := args[0]
			previous, ok, err := a.store.Text(ctx, fieldbind.DefaultKey(key))
			if err != nil {
				return err
			}
			if err := a.store.ResetDefault(ctx, key); err != nil {
				return err
			}
			if ok {
				a.emit(ctx, activity.Event{Verb: activity.VerbDefaultReset, Key: key, OldValue: previous})
			}
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a key and its default snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.Delete(cmd.Context(), args[0])
		},
	}
}

// valueType resolves a kind name; Enum kinds need the member names.
func valueType(kind, enumNames string) (fieldbind.ValueType, error) {
	k, err := fieldbind.ParseValueKind(kind)
	if err != nil {
		return fieldbind.ValueType{}, err
	}
	if k != fieldbind.KindEnum {
		return fieldbind.ValueType{Kind: k}, nil
	}
	if strings.TrimSpace(enumNames) == "" {
		return fieldbind.ValueType{}, fmt.Errorf("enum values need --enum names")
	}
	names := strings.Split(enumNames, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return fieldbind.ValueType{Kind: k, Enum: fieldbind.NewEnumType("", names)}, nil
}
