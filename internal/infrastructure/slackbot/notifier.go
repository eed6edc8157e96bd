// Package slackbot adapts the collector's outbound notifications and the
// inbound mention commands to the Slack Web/Events APIs.
package slackbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"NewsCollector/internal/config"
	"NewsCollector/internal/domain"
	"NewsCollector/internal/ports"
)

const timeDisplayLayout = "2006年01月02日 15:04"

// Notifier posts collection updates to the configured Slack channel.
type Notifier struct {
	client    *slack.Client
	channel   string
	username  string
	iconEmoji string
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier builds a Slack client from configuration.
func NewNotifier(cfg config.SlackConfig) *Notifier {
	return &Notifier{
		client:    slack.New(cfg.BotToken),
		channel:   cfg.Channel,
		username:  cfg.Username,
		iconEmoji: cfg.IconEmoji,
	}
}

// NotifyNewArticle posts one message per newly persisted article.
func (n *Notifier) NotifyNewArticle(ctx context.Context, companyName string, article domain.Article) error {
	text := fmt.Sprintf("*<%s|%s>*\n🏢 %s\n📅 %s\n📰 %s",
		article.URL,
		article.Title,
		companyName,
		article.PublishedAt.Format(timeDisplayLayout),
		strings.ToUpper(string(article.Source)),
	)

	blocks := []slack.Block{
		headerBlock(fmt.Sprintf("🆕 %sの新着記事", companyName)),
		slack.NewDividerBlock(),
		sectionBlock(text),
	}
	return n.post(ctx, blocks)
}

// NotifyRunReport posts the end-of-run summary, with error details when any
// source failed.
func (n *Notifier) NotifyRunReport(ctx context.Context, report domain.RunReport) error {
	fetched, newCount, duplicate, failed := report.Totals()
	failedSources := report.FailedSources()

	summary := fmt.Sprintf(
		"*実行結果サマリー*\n✅ 成功: %d件\n❌ 失敗: %d件\n📄 取得: %d件 / 新規: %d件 / 重複: %d件 / 失敗: %d件\n🕒 実行時刻: %s",
		len(report.Results)-len(failedSources),
		len(failedSources),
		fetched, newCount, duplicate, failed,
		report.FinishedAt.Format("2006-01-02 15:04:05"),
	)

	blocks := []slack.Block{
		headerBlock("🤖 スクレイピング実行結果"),
		slack.NewDividerBlock(),
		sectionBlock(summary),
	}

	if len(failedSources) > 0 {
		var detail strings.Builder
		detail.WriteString("*エラー詳細:*\n")
		for _, res := range failedSources {
			fmt.Fprintf(&detail, "• %s (%s): %s\n", res.CompanyID, res.Source, res.Err)
		}
		blocks = append(blocks, sectionBlock(detail.String()))
	}

	return n.post(ctx, blocks)
}

// NotifyError posts a critical-error notice.
func (n *Notifier) NotifyError(ctx context.Context, message, detail string) error {
	blocks := []slack.Block{
		headerBlock("⚠️ エラーが発生しました"),
		sectionBlock("*エラー内容:*\n" + message),
	}
	if detail != "" {
		blocks = append(blocks, sectionBlock("*詳細:*\n```"+detail+"```"))
	}
	return n.post(ctx, blocks)
}

func (n *Notifier) post(ctx context.Context, blocks []slack.Block) error {
	opts := []slack.MsgOption{slack.MsgOptionBlocks(blocks...)}
	if n.username != "" {
		opts = append(opts, slack.MsgOptionUsername(n.username))
	}
	if n.iconEmoji != "" {
		opts = append(opts, slack.MsgOptionIconEmoji(n.iconEmoji))
	}

	if _, _, err := n.client.PostMessageContext(ctx, n.channel, opts...); err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	return nil
}

func headerBlock(text string) slack.Block {
	return slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, text, false, false))
}

func sectionBlock(text string) slack.Block {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}
