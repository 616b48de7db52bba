package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iabetor/aqtalk/internal/aquestalk"
	"github.com/iabetor/aqtalk/internal/audio"
	"github.com/iabetor/aqtalk/internal/config"
	"github.com/iabetor/aqtalk/internal/database"
	"github.com/iabetor/aqtalk/internal/kanji2koe"
	"github.com/iabetor/aqtalk/internal/logger"
	"github.com/iabetor/aqtalk/internal/tts"
)

const defaultConfigPath = "configs/aqtalk.yaml"

type options struct {
	configPath string
	input      inputOptions
	phonetic   bool
	speed      int
	out        string
	play       bool
	print      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", defaultConfigPath, "配置文件路径")
	flag.StringVar(&opts.input.Text, "text", "", "待合成文本")
	flag.StringVar(&opts.input.Path, "input", "", "输入文件路径，- 表示标准输入")
	flag.StringVar(&opts.input.Encoding, "encoding", "utf-8", "输入文件编码: utf-8, shift_jis, euc-jp, utf-16")
	flag.BoolVar(&opts.input.NFKC, "nfkc", false, "转换前做 NFKC 规范化（全角英数转半角等）")
	flag.BoolVar(&opts.phonetic, "koe", false, "输入已是音声记号列，跳过汉字转换")
	flag.IntVar(&opts.speed, "speed", 0, "发话速度 50-300，0 表示使用配置值")
	flag.StringVar(&opts.out, "out", "", "输出 WAV 文件路径")
	flag.BoolVar(&opts.play, "play", false, "直接播放合成结果")
	flag.BoolVar(&opts.print, "print", false, "打印音声记号列")
	flag.Parse()
	opts.input.Args = flag.Args()

	if err := run(opts); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "aqtalk: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.out == "" && !opts.play && !opts.print {
		return errors.New("需要指定 -out、-play 或 -print 中的至少一个")
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.speed != 0 {
		cfg.AquesTalk.Speed = opts.speed
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer logger.Sync()

	text, err := readInput(opts.input, os.Stdin)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，当前原生调用结束后停止
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Infof("[main] 收到信号 %v，正在停止...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var conv tts.Converter
	var cache tts.KoeCache
	if !opts.phonetic {
		lib, err := kanji2koe.Load(cfg.Kanji2Koe.Library, cfg.Kanji2Koe.DevKey)
		if err != nil {
			return err
		}
		defer lib.Close()

		inst, err := lib.Create(cfg.Kanji2Koe.Dictionary)
		if err != nil {
			return err
		}
		defer inst.Close()
		conv = inst

		if cfg.Cache.Enabled {
			if db := openCache(cfg.Cache); db != nil {
				defer db.Close()
				cache = db
			}
		}
	}

	var voice tts.Voice
	if opts.out != "" || opts.play {
		synth, err := aquestalk.Load(cfg.AquesTalk.Library)
		if err != nil {
			return err
		}
		defer synth.Close()
		voice = synth
	}

	speaker := tts.NewSpeaker(conv, voice, cache, tts.Options{
		Speed:      cfg.AquesTalk.Speed,
		BufferSize: cfg.Kanji2Koe.BufferSize,
		Dictionary: cfg.Kanji2Koe.Dictionary,
		Phonetic:   opts.phonetic,
	})

	// 只播放时按 Engine 接口合成并播放
	if opts.play && opts.out == "" && !opts.print {
		player, err := audio.NewPlayer()
		if err != nil {
			return err
		}
		defer player.Close()
		return speak(ctx, speaker, player, text)
	}

	chunks, err := speaker.Notation(ctx, text)
	if err != nil {
		return err
	}
	if opts.print {
		fmt.Println(strings.Join(chunks, "\n"))
	}
	if voice == nil {
		return nil
	}

	wav, err := speaker.SpeakNotation(ctx, chunks)
	if err != nil {
		return err
	}

	if opts.out != "" {
		if err := os.WriteFile(opts.out, wav, 0644); err != nil {
			return fmt.Errorf("写入 %s 失败: %w", opts.out, err)
		}
		logger.Infof("[main] 已写入 %s (%d 字节)", opts.out, len(wav))
	}

	if opts.play {
		samples, sampleRate, err := tts.DecodeSamples(wav)
		if err != nil {
			return err
		}
		player, err := audio.NewPlayer()
		if err != nil {
			return err
		}
		defer player.Close()
		return player.Play(ctx, samples, sampleRate)
	}
	return nil
}

// loadConfig 读取配置文件；默认路径不存在时使用内置默认值。
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openCache 打开转换缓存，失败时只记录警告并以无缓存方式继续。
func openCache(cfg config.CacheConfig) *database.DB {
	db, err := database.Open(cfg.Path)
	if err != nil {
		logger.Warnf("[main] 打开转换缓存失败: %v", err)
		return nil
	}
	if err := db.Migrate(); err != nil {
		logger.Warnf("[main] 初始化转换缓存失败: %v", err)
		db.Close()
		return nil
	}
	if cfg.MaxAgeDays > 0 {
		n, err := db.PurgeKoe(time.Duration(cfg.MaxAgeDays) * 24 * time.Hour)
		if err != nil {
			logger.Warnf("[main] 清理转换缓存失败: %v", err)
		} else if n > 0 {
			logger.Infof("[main] 清理了 %d 条过期缓存", n)
		}
	}
	return db
}
