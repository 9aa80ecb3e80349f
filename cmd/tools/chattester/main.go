package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/caffeine-relay/backend/internal/config"
	"github.com/zhouzirui/caffeine-relay/backend/internal/logging"
	chatmodel "github.com/zhouzirui/caffeine-relay/backend/internal/model/chat"
	"github.com/zhouzirui/caffeine-relay/backend/internal/model/persona"
	"github.com/zhouzirui/caffeine-relay/backend/internal/service/ai"
	"github.com/zhouzirui/caffeine-relay/backend/internal/service/chat"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] 无法加载 .env，改用系统环境变量: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	message := flag.String("message", "", "发送给咖啡师的消息")
	systemPrompt := flag.String("system", "", "自定义系统提示词，覆盖persona")
	personaID := flag.String("persona", "", "persona ID，默认使用 DEFAULT_PERSONA")
	historyPath := flag.String("history", "", "历史记录 JSON 文件（turn 数组）")
	timeout := flag.Duration("timeout", 30*time.Second, "请求超时时间")

	flag.Parse()

	if strings.TrimSpace(*message) == "" {
		flag.Usage()
		log.Fatal().Msg("请通过 -message 提供消息内容")
	}

	req := chatmodel.Request{
		Message:      strings.TrimSpace(*message),
		SystemPrompt: *systemPrompt,
		PersonaID:    *personaID,
	}
	if *historyPath != "" {
		raw, err := os.ReadFile(*historyPath)
		if err != nil {
			log.Fatal().Err(err).Msg("读取历史记录失败")
		}
		req.History = chat.FilterHistory(raw)
	}

	store := persona.NewMemoryStore(persona.Seed())
	if cfg.Relay.PersonaFile != "" {
		items, err := persona.LoadFile(cfg.Relay.PersonaFile)
		if err != nil {
			log.Fatal().Err(err).Msg("persona 文件加载失败")
		}
		store = persona.NewMemoryStore(items)
	}

	svc := chat.NewService(
		ai.NewService(cfg.AI, nil, nil),
		chat.NewPersonaPrompter(store, cfg.Relay.DefaultPersona),
		cfg.Relay.ErrorPolicy,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	runID := uuid.NewString()
	log.Info().Str("run", runID).Int("history", len(req.History)).Str("model", cfg.AI.Model).Msg("开始中继测试")

	start := time.Now()
	resp, err := svc.Relay(ctx, req)
	if err != nil {
		out := chatmodel.ErrorResponse{Error: err.Error()}
		status := 500
		var relayErr *chat.RelayError
		if errors.As(err, &relayErr) {
			out = relayErr.Response()
			status = relayErr.Status
		}
		encoded, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintf(os.Stderr, "HTTP %d\n%s\n", status, encoded)
		os.Exit(1)
	}

	log.Info().Str("run", runID).Dur("elapsed", time.Since(start)).Msg("中继成功")
	fmt.Println(resp.Reply)
}
