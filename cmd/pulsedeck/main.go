package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ivlev/pulsedeck/internal/animator"
	"github.com/ivlev/pulsedeck/internal/config"
	"github.com/ivlev/pulsedeck/internal/director"
	"github.com/ivlev/pulsedeck/internal/engine"
	"github.com/ivlev/pulsedeck/internal/frames"
	"github.com/ivlev/pulsedeck/internal/layout"
	"github.com/ivlev/pulsedeck/internal/report"
	"github.com/ivlev/pulsedeck/internal/system"
	"github.com/ivlev/pulsedeck/internal/video"
)

// buildVersion is set with -ldflags "-X main.buildVersion=..."
var buildVersion = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}
	cfg.BuildVersion = buildVersion

	if err := system.EnsureDirs(cfg.ReportDir, cfg.OutputDir); err != nil {
		log.Printf("[!] %v", err)
	}

	flag.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "Путь к YAML-отчету (по умолчанию: самый свежий файл в "+cfg.ReportDir+"/, иначе встроенный)")
	flag.DurationVar(&cfg.Duration, "duration", cfg.Duration, "Длительность анимации значений")
	flag.IntVar(&cfg.Steps, "steps", cfg.Steps, "Количество шагов анимации")
	flag.StringVar(&cfg.Easing, "easing", cfg.Easing, "Кривая анимации: "+strings.Join(animator.EasingNames(), ", "))
	flag.Float64Var(&cfg.ScrollThreshold, "scroll-threshold", cfg.ScrollThreshold, "Смещение (px), после которого меню получает фон")
	flag.IntVar(&cfg.RowPixels, "row-pixels", cfg.RowPixels, "Пикселей прокрутки на одну строку терминала")
	flag.Float64Var(&cfg.Visibility, "visibility", cfg.Visibility, "Доля региона в окне, запускающая анимацию (0..1)")
	flag.IntVar(&cfg.FPS, "fps", cfg.FPS, "Частота перерисовки")
	flag.IntVar(&cfg.PageWidth, "page-width", cfg.PageWidth, "Ширина страницы в колонках (0 - по терминалу)")
	flag.Float64Var(&cfg.TourDuration, "tour", cfg.TourDuration, "Автопрокрутка: общая длительность тура в секундах (0 - выкл.)")
	flag.StringVar(&cfg.TourPath, "tour-file", cfg.TourPath, "Путь к готовому YAML-туру")
	flag.StringVar(&cfg.SaveTour, "save-tour", cfg.SaveTour, "Сохранить сгенерированный тур (\"auto\" - в папку вывода)")
	flag.StringVar(&cfg.Export, "export", cfg.Export, "Экспорт анимации региона в PNG-кадры (id региона, например roi-card)")
	flag.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Папка для кадров и туров")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Потоки кодирования PNG")
	flag.IntVar(&cfg.FrameWidth, "width", cfg.FrameWidth, "Ширина кадра при экспорте")
	flag.IntVar(&cfg.FrameHeight, "height", cfg.FrameHeight, "Высота кадра при экспорте")
	flag.StringVar(&cfg.Video, "video", cfg.Video, "Собрать экспортированные кадры в MP4 через ffmpeg (\"auto\" - рядом с кадрами)")
	flag.StringVar(&cfg.Encoder, "encoder", cfg.Encoder, "Видеоэнкодер: "+strings.Join(video.Encoders, ", "))
	flag.IntVar(&cfg.Quality, "quality", cfg.Quality, "Качество видео (CRF/CQ или битрейт x100k для videotoolbox)")
	flag.BoolVar(&cfg.ShowStats, "stats", cfg.ShowStats, "Показать отчет о сессии")
	flag.StringVar(&cfg.DumpReport, "dump-report", cfg.DumpReport, "Записать отчет в YAML и выйти")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] %v", err)
	}

	rep, source, err := loadReport(cfg)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения отчета: %v", err)
	}
	fmt.Printf("[*] Отчет: %s (%s) | Регионов: %d\n", rep.Title, source, len(rep.Regions))

	if cfg.DumpReport != "" {
		if err := report.WriteReport(rep, cfg.DumpReport); err != nil {
			log.Fatalf("[-] Ошибка записи отчета: %v", err)
		}
		fmt.Printf("[+++] Успех! Отчет сохранен: %s\n", cfg.DumpReport)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	easing, _ := animator.ParseEasing(cfg.Easing)

	if cfg.Export != "" {
		exportFrames(ctx, cfg, rep, easing)
		return
	}

	if err := present(ctx, cfg, rep, source); err != nil {
		log.Fatalf("[-] Ошибка презентации: %v", err)
	}
}

// loadReport picks the report: the -report flag, the newest file in the
// report folder, or the built-in one.
func loadReport(cfg *config.Config) (*report.Report, string, error) {
	path := cfg.ReportPath
	if path == "" {
		latest, err := report.FindLatestReport(cfg.ReportDir)
		if err != nil {
			rep, err := report.Default()
			return rep, "встроенный", err
		}
		path = latest
		fmt.Printf("[*] Выбран файл: %s\n", path)
	}
	rep, err := report.ReadReport(path)
	return rep, path, err
}

func exportFrames(ctx context.Context, cfg *config.Config, rep *report.Report, easing animator.Easing) {
	exporter := frames.NewExporter(cfg.FrameWidth, cfg.FrameHeight, cfg.Workers)
	exporter.Steps = cfg.Steps
	exporter.Duration = cfg.Duration
	exporter.Easing = easing

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	dir := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s", cfg.Export, timestamp))

	fmt.Println("--- [FRAME EXPORT] ---")
	fmt.Printf("[*] Регион: %s | Кадр: %dx%d | Шагов: %d за %s | Потоки: %d\n",
		cfg.Export, cfg.FrameWidth, cfg.FrameHeight, cfg.Steps, cfg.Duration, cfg.Workers)
	fmt.Println("----------------------")

	start := time.Now()
	m, err := exporter.Export(ctx, rep, cfg.Export, dir)
	if err != nil {
		if errors.Is(err, frames.ErrUnknownRegion) {
			var ids []string
			for _, r := range rep.Regions {
				if len(r.Metrics) > 0 {
					ids = append(ids, r.ID)
				}
			}
			log.Fatalf("[-] %v. Доступные регионы: %s", err, strings.Join(ids, ", "))
		}
		log.Fatalf("[-] Ошибка экспорта: %v", err)
	}

	if cfg.ShowStats {
		elapsed := time.Since(start)
		fmt.Printf("--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n",
			cfg.BuildVersion, len(m.Frames), elapsed.Seconds(), float64(len(m.Frames))/elapsed.Seconds())
		printUsage()
		fmt.Println("----------------------------")
	}
	fmt.Printf("[+++] Успех! Кадры: %s\n", dir)

	if cfg.Video != "" {
		encodeVideo(ctx, cfg, dir, m)
	}
}

func encodeVideo(ctx context.Context, cfg *config.Config, dir string, m *frames.Manifest) {
	out := cfg.Video
	if out == "auto" {
		out = dir + ".mp4"
	}
	seq := video.Sequence{
		Dir:      dir,
		Pattern:  frames.FramePattern,
		Count:    len(m.Frames),
		Duration: cfg.Duration,
	}
	enc := &video.FFmpegEncoder{Codec: cfg.Encoder, Quality: cfg.Quality, FPS: cfg.FPS}

	fmt.Printf("[*] Кодирование видео (%s, %.2f к/с)...\n", cfg.Encoder, seq.Rate())
	if err := enc.Encode(ctx, seq, out); err != nil {
		log.Fatalf("[-] Ошибка кодирования: %v", err)
	}
	fmt.Printf("[+++] Успех! Видео: %s\n", out)
}

func present(ctx context.Context, cfg *config.Config, rep *report.Report, source string) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.EnableMouse()

	// the screen owns the terminal until Fini; logs wait in a buffer
	var logs bytes.Buffer
	logger := log.New(&logs, "", log.LstdFlags)

	tour, err := loadTour(cfg, rep, screen, logger)
	if err != nil {
		screen.Fini()
		return err
	}

	p := engine.NewPresentation(cfg, rep, screen)
	p.Logger = logger
	p.Tour = tour
	runErr := p.Run(ctx)
	screen.Fini()

	os.Stderr.Write(logs.Bytes())
	if runErr != nil {
		return runErr
	}

	if cfg.ShowStats {
		fmt.Print(p.Stats.Report(cfg.BuildVersion))
		printUsage()
		if err := p.Stats.AppendLog(cfg.StatsLog, cfg.BuildVersion, source); err != nil {
			fmt.Printf("[!] Не удалось записать %s: %v\n", cfg.StatsLog, err)
		}
	}
	return nil
}

// loadTour reads a saved tour or plans one for the current screen.
func loadTour(cfg *config.Config, rep *report.Report, screen tcell.Screen, logger *log.Logger) (*director.Tour, error) {
	if cfg.TourPath != "" {
		return director.ReadTour(cfg.TourPath)
	}
	if cfg.TourDuration <= 0 {
		return nil, nil
	}

	w, h := screen.Size()
	if cfg.PageWidth > 0 {
		w = min(cfg.PageWidth, w)
	}
	tour, err := director.NewDirector(h).GenerateTour(layout.Build(rep, w), cfg.TourDuration)
	if err != nil {
		return nil, err
	}

	if cfg.SaveTour != "" {
		path := cfg.SaveTour
		if path == "auto" {
			path = director.GenerateTourPath(cfg.OutputDir)
		}
		if err := director.WriteTour(tour, path); err != nil {
			logger.Printf("[!] Не удалось сохранить тур: %v", err)
		} else {
			logger.Printf("[+++] Тур сохранен: %s", path)
		}
	}
	return tour, nil
}

func printUsage() {
	u, err := system.ProcessUsage()
	if err != nil {
		fmt.Printf("[!] Нет данных о ресурсах: %v\n", err)
		return
	}
	fmt.Printf("Process: %s\n", u)
}
