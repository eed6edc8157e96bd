package slackbot

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/ports"
)

const (
	defaultRecentDays  = 7
	recentArticleLimit = 100
	// Slack rejects messages with more than 50 blocks.
	maxBlocksPerMessage = 50
)

var (
	mentionExpr = regexp.MustCompile(`<@[A-Z0-9]+>`)
	daysExpr    = regexp.MustCompile(`(\d+)\s*(?:日|days?)`)
	allExpr     = regexp.MustCompile(`all\s+(.+)`)
)

// Runner triggers a collection batch on demand; satisfied by the collector.
type Runner interface {
	Run(ctx context.Context) (domain.RunReport, error)
}

// EventHandler answers app mentions with bot commands: help, recent, all, run.
type EventHandler struct {
	client       *slack.Client
	repo         ports.ArticleRepository
	runner       Runner
	companyNames map[string]string
}

// NewEventHandler wires the Slack client with the repository and collector.
func NewEventHandler(client *slack.Client, repo ports.ArticleRepository, runner Runner, companyNames map[string]string) *EventHandler {
	return &EventHandler{
		client:       client,
		repo:         repo,
		runner:       runner,
		companyNames: companyNames,
	}
}

// HandleMention dispatches one app_mention event. Unknown commands show help.
func (h *EventHandler) HandleMention(ctx context.Context, channel, text string) error {
	command := strings.ToLower(strings.TrimSpace(mentionExpr.ReplaceAllString(text, "")))

	switch {
	case strings.Contains(command, "help"), strings.Contains(command, "ヘルプ"):
		return h.showHelp(ctx, channel)
	case strings.Contains(command, "recent"), strings.Contains(command, "最近"):
		return h.showRecent(ctx, channel, extractDays(command))
	case strings.Contains(command, "all"):
		return h.sendAllArticles(ctx, channel, extractKeywords(command))
	case strings.Contains(command, "run"):
		return h.runCollection(ctx, channel)
	default:
		return h.showHelp(ctx, channel)
	}
}

func (h *EventHandler) showHelp(ctx context.Context, channel string) error {
	blocks := []slack.Block{
		headerBlock("🤖 ニュース Bot の使い方"),
		sectionBlock("*使用可能なコマンド:*"),
		sectionBlock("• `@bot help` / `@bot ヘルプ` - このヘルプを表示\n" +
			"• `@bot recent` / `@bot 最近` - 直近7日間の記事を表示\n" +
			"• `@bot recent 30days` / `@bot 最近30日` - 指定日数分の記事を表示\n" +
			"• `@bot all` - 全企業の過去記事をJSONファイルで取得\n" +
			"• `@bot all 企業名1,企業名2` - 名前が部分一致する企業の過去記事を取得\n" +
			"• `@bot run` - 手動でスクレイピングを実行し、新着記事があれば通知"),
	}
	return h.postBlocks(ctx, channel, blocks)
}

func (h *EventHandler) showRecent(ctx context.Context, channel string, days int) error {
	since := time.Now().AddDate(0, 0, -days)
	articles, err := h.repo.Recent(ctx, since, recentArticleLimit)
	if err != nil {
		return fmt.Errorf("load recent articles: %w", err)
	}

	if len(articles) == 0 {
		return h.postText(ctx, channel, fmt.Sprintf("過去%d日間の新着記事はありません。", days))
	}

	blocks := []slack.Block{
		headerBlock(fmt.Sprintf("📰 過去%d日間の記事一覧 (全%d件)", days, len(articles))),
		slack.NewDividerBlock(),
	}
	for _, article := range articles {
		name := h.companyNames[article.CompanyID]
		if name == "" {
			name = "Unknown Company"
		}
		blocks = append(blocks,
			sectionBlock(fmt.Sprintf("*<%s|%s>*\n🏢 %s\n📅 %s\n📰 %s",
				article.URL, article.Title, name,
				article.PublishedAt.Format(timeDisplayLayout),
				strings.ToUpper(string(article.Source)))),
			slack.NewDividerBlock(),
		)
	}

	// Long listings are split across messages.
	for start := 0; start < len(blocks); start += maxBlocksPerMessage {
		end := start + maxBlocksPerMessage
		if end > len(blocks) {
			end = len(blocks)
		}
		if err := h.postBlocks(ctx, channel, blocks[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (h *EventHandler) runCollection(ctx context.Context, channel string) error {
	report, err := h.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("manual run: %w", err)
	}

	fetched, newCount, duplicate, failed := report.Totals()
	return h.postText(ctx, channel,
		fmt.Sprintf("手動スクレイピングが完了しました。取得: %d件 / 新規: %d件 / 重複: %d件 / 失敗: %d件",
			fetched, newCount, duplicate, failed))
}

// sendAllArticles uploads the stored history of the matched companies to the
// channel as a JSON file. Empty keywords select every configured company.
func (h *EventHandler) sendAllArticles(ctx context.Context, channel string, keywords []string) error {
	if len(h.companyNames) == 0 {
		return h.postText(ctx, channel, "企業データがありません。")
	}

	ids := h.matchCompanyIDs(keywords)
	if len(ids) == 0 {
		return h.postText(ctx, channel, "指定された企業名に部分一致する企業が見つかりません。")
	}

	var export []articleExport
	for _, id := range ids {
		articles, err := h.repo.AllByCompany(ctx, id)
		if err != nil {
			return fmt.Errorf("load articles for %s: %w", id, err)
		}
		for _, a := range articles {
			export = append(export, exportArticle(a))
		}
	}
	if len(export) == 0 {
		return h.postText(ctx, channel, "記事が見つかりませんでした。")
	}

	payload, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("encode articles: %w", err)
	}

	if _, err := h.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:  channel,
		Content:  string(payload),
		FileSize: len(payload),
		Filename: "articles.json",
		Title:    "Articles Download",
	}); err != nil {
		return fmt.Errorf("upload articles file: %w", err)
	}

	return h.postText(ctx, channel,
		fmt.Sprintf("指定した企業の過去記事をJSONファイルとしてアップロードしました（全%d件）。", len(export)))
}

// matchCompanyIDs selects companies whose name contains any keyword,
// case-insensitively. No keywords means every company.
func (h *EventHandler) matchCompanyIDs(keywords []string) []string {
	var ids []string
	for id, name := range h.companyNames {
		if len(keywords) == 0 {
			ids = append(ids, id)
			continue
		}
		lower := strings.ToLower(name)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

type articleExport struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	Content     string `json:"content,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Status      string `json:"status"`
}

func exportArticle(a domain.Article) articleExport {
	return articleExport{
		ID:          a.ID,
		CompanyID:   a.CompanyID,
		Title:       a.Title,
		URL:         a.URL,
		Source:      string(a.Source),
		PublishedAt: a.PublishedAt.Format(time.RFC3339),
		Content:     a.Content,
		ImageURL:    a.ImageURL,
		Status:      string(a.Status),
	}
}

func (h *EventHandler) postBlocks(ctx context.Context, channel string, blocks []slack.Block) error {
	if _, _, err := h.client.PostMessageContext(ctx, channel, slack.MsgOptionBlocks(blocks...)); err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	return nil
}

func (h *EventHandler) postText(ctx context.Context, channel, text string) error {
	if _, _, err := h.client.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	return nil
}

// extractKeywords splits the comma-separated company keywords after "all".
func extractKeywords(command string) []string {
	match := allExpr.FindStringSubmatch(command)
	if match == nil {
		return nil
	}
	var keywords []string
	for _, kw := range strings.Split(match[1], ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// extractDays pulls a day count like "30days" or "30日"; defaults to a week.
func extractDays(text string) int {
	match := daysExpr.FindStringSubmatch(text)
	if match == nil {
		return defaultRecentDays
	}
	days, err := strconv.Atoi(match[1])
	if err != nil || days <= 0 {
		return defaultRecentDays
	}
	return days
}
