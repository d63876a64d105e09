package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"campuscal/internal/backend"
	"campuscal/internal/config"
	"campuscal/internal/database"
	"campuscal/internal/fsutil"
	"campuscal/internal/ics"
	appLog "campuscal/internal/log"
	"campuscal/internal/metrics"
	"campuscal/internal/model"
	"campuscal/internal/planner"
	"campuscal/internal/refresh"
	"campuscal/internal/schedule"
	"campuscal/internal/session"
	"campuscal/internal/store"
	"campuscal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	out        string
}

func main() {
	appLog.Info("campuscal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"reference_date", conf.ReferenceDate,
		"backend", conf.Backend.BaseURL,
		"refresh", conf.RefreshCron,
		"data_dir", conf.DataDir,
		"once", flags.once,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("campuscal failed", err)
		os.Exit(1)
	}
	appLog.Info("campuscal exiting")
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var cacheDir string
	if conf.Backend.Cache {
		cacheDir = conf.CacheDir()
	}
	client := backend.New(backend.Options{
		BaseURL:  conf.Backend.BaseURL,
		Timeout:  conf.BackendTimeout(),
		CacheDir: cacheDir,
		Metrics:  m,
	})

	sessions, err := session.NewManager(conf.SessionPath(), conf.SessionFallbackTTL())
	if err != nil {
		return err
	}

	plan := planner.New(planner.Options{
		ExtraWeeks:           conf.TeacherWeeks,
		Synthetic:            conf.Synthetic.Enabled,
		FillMissingSchedules: conf.Synthetic.FillMissingSchedules,
	}, nil)
	plan.OnEvent(func(ev model.CalendarEvent) {
		m.RecordEvent(string(ev.Type), ev.Source)
	})

	db, err := database.Open(conf.DatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()
	events := store.NewEventStore(db)

	if flags.once {
		return exportOnce(ctx, conf, sessions, client, plan, events, flags.out)
	}

	server := web.NewServer(web.Deps{
		Config:   conf,
		Sessions: sessions,
		Backend:  client,
		Planner:  plan,
		Events:   events,
		Metrics:  m,
		Registry: registry,
	})

	job := refresh.NewJob(sessions, client, server.Invalidate, m, conf.BackendTimeout())
	if _, err := refresh.Start(ctx, conf.RefreshCron, conf.Location(), job); err != nil {
		return err
	}

	return server.ListenAndServe(ctx)
}

// exportOnce writes the signed-in user's calendar as iCalendar to out and
// returns.
func exportOnce(ctx context.Context, conf *config.Config, sessions *session.Manager, client *backend.Client, plan *planner.Planner, events *store.EventStore, out string) error {
	if out == "" {
		return errors.New("-once requires -out")
	}
	sess, err := sessions.Current()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, conf.BackendTimeout())
	defer cancel()

	courses, err := client.CoursesFor(ctx, sess)
	if err != nil {
		return err
	}

	loc := conf.Location()
	today := conf.Today(time.Now())
	var cal planner.Calendar
	if sess.Role() == model.RoleTeacher {
		from, to := schedule.WeeksFrom(today, conf.TeacherWeeks).Range()
		local, err := events.ListByRange(ctx, sess.User.ID, from, to, loc)
		if err != nil {
			return err
		}
		cal = plan.Teacher(courses, today, local)
	} else {
		from, to := schedule.MonthOf(today.Year(), today.Month(), loc).Range()
		local, err := events.ListByRange(ctx, sess.User.ID, from, to, loc)
		if err != nil {
			return err
		}
		cal = plan.Month(sess.Role(), courses, today.Year(), today.Month(), loc, today, local)
	}

	body, err := ics.Export("campuscal - "+sess.User.Name, cal.Events, time.Now())
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(out, []byte(body)); err != nil {
		return err
	}
	appLog.Info("calendar exported", "path", out, "events", len(cal.Events), "role", sess.Role())
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/campuscal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Export the signed-in user's calendar once and exit")
	flag.StringVar(&cfg.out, "out", "", "Output path of the -once iCalendar export")

	flag.Parse()

	return cfg
}
