package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/core/domain/ledger"
	"github.com/avatarctic/ledger/internal/core/ports"
)

const voicePrompt = `你是一个专业的账单信息提取助手。请从用户的语音描述中提取账单信息，返回JSON格式数据。

提取规则：
1. 客户姓名：识别"客户"、"姓名"、"买了"、"购买了"等关键词后的名字
2. 联系电话：识别11位手机号，格式如 13812345678
3. 金额：识别"元"、"块钱"前的数字
4. 商品描述：提取购买的物品和数量
5. 付款状态：识别"已付"、"未付"、"欠"等关键词
6. 日期：识别交易日期，格式 YYYY-MM-DD

返回JSON格式，如果某个字段无法识别，不要包含该字段。
示例输出：
{"customer_name": "老刘", "phone": "13986707070", "amount": 1200, "item_description": "买了20包饲料", "is_paid": false}`

const imagePrompt = `你是一个专业的账单图片识别助手。请从图片中识别所有账单信息，返回JSON数组格式。

识别规则：
1. 识别图片中的每一行账单记录
2. 提取：客户姓名、联系电话、金额、商品描述、付款状态、日期
3. 如果某个字段无法识别，不要包含该字段
4. 金额：提取数字，不要包含货币符号
5. 日期：识别交易日期，格式 YYYY-MM-DD

示例输出：
[{"customer_name": "老刘", "phone": "13986707070", "amount": 1200, "item_description": "20包饲料", "is_paid": false, "account_date": "2025-10-15"}]`

const imageInstruction = "请识别这张图片中的所有账单信息。"

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	jsonObject  = regexp.MustCompile(`(?s)\{.*\}`)
	jsonArray   = regexp.MustCompile(`(?s)\[.*\]`)
)

type ExtractionConfig struct {
	VoiceModel  string
	VisionModel string
}

// ExtractionService asks a chat model for ledger fields and tolerates the
// usual noise around the JSON in its reply.
type ExtractionService struct {
	model  ports.ChatModel
	cfg    ExtractionConfig
	logger *logrus.Logger
}

// NewExtractionService accepts a nil model when no API key is configured.
func NewExtractionService(model ports.ChatModel, cfg ExtractionConfig, logger *logrus.Logger) ports.ExtractionService {
	return &ExtractionService{model: model, cfg: cfg, logger: logger}
}

func (s *ExtractionService) ParseVoice(ctx context.Context, text string) (*ledger.ExtractedAccount, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if s.model == nil {
		return nil, asset.ErrAIUnavailable
	}
	reply, err := s.model.Complete(ctx, s.cfg.VoiceModel, []ports.ChatMessage{
		{Role: "system", Content: voicePrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		return nil, fmt.Errorf("voice parsing failed: %w", err)
	}

	out := &ledger.ExtractedAccount{}
	var m map[string]any
	if err := decodeReply(reply, jsonObject, &m); err != nil {
		s.warnUnparsed(reply, err)
		return out, nil
	}
	*out = ledger.ExtractedFromMap(m)
	return out, nil
}

func (s *ExtractionService) ParseImage(ctx context.Context, imageURL, imageBase64, mimeType string) ([]ledger.ExtractedAccount, error) {
	ref := imageURL
	if imageBase64 != "" {
		if mimeType == "" {
			mimeType = asset.DefaultImageMimeType
		}
		ref = "data:" + mimeType + ";base64," + imageBase64
	}
	if ref == "" {
		return nil, fmt.Errorf("imageUrl or imageBase64 is required")
	}
	if s.model == nil {
		return nil, asset.ErrAIUnavailable
	}
	reply, err := s.model.Complete(ctx, s.cfg.VisionModel, []ports.ChatMessage{
		{Role: "system", Content: imagePrompt},
		{Role: "user", Content: []ports.ContentPart{
			{Type: "text", Text: imageInstruction},
			{Type: "image_url", ImageURL: &ports.ImageRef{URL: ref, Detail: "high"}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("image parsing failed: %w", err)
	}

	var rows []map[string]any
	if err := decodeReply(reply, jsonArray, &rows); err != nil {
		// some models answer a single receipt with a bare object
		var single map[string]any
		if err2 := decodeReply(reply, jsonObject, &single); err2 != nil {
			s.warnUnparsed(reply, err)
			return []ledger.ExtractedAccount{}, nil
		}
		rows = []map[string]any{single}
	}

	out := make([]ledger.ExtractedAccount, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, ledger.ExtractedFromMap(r))
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"rows": len(out)}).Info("image parsed")
	}
	return out, nil
}

func (s *ExtractionService) warnUnparsed(reply string, err error) {
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"reply": truncate(reply, 200)}).WithError(err).Warn("could not parse model reply")
	}
}

// decodeReply tries the raw reply, then a fenced code block, then the widest
// span matched by shape.
func decodeReply(reply string, shape *regexp.Regexp, v any) error {
	reply = strings.TrimSpace(reply)
	candidates := []string{reply}
	if m := fencedBlock.FindStringSubmatch(reply); len(m) == 2 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := shape.FindString(reply); m != "" {
		candidates = append(candidates, m)
	}

	var lastErr error
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if err := json.Unmarshal([]byte(c), v); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no json found")
	}
	return lastErr
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
