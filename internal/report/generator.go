package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"

	"go.uber.org/zap"
)

// Generator renders a report definition into a markdown summary covering
// the selected agents and database tasks plus a 24 hour outcome tally.
type Generator struct {
	logger      *zap.Logger
	agents      domain.AgentRepository
	folderTasks domain.FolderTaskRepository
	tasks       domain.TaskRepository
	now         func() time.Time
}

func NewGenerator(agents domain.AgentRepository, folderTasks domain.FolderTaskRepository, tasks domain.TaskRepository, log *zap.Logger) *Generator {
	return &Generator{
		logger:      log,
		agents:      agents,
		folderTasks: folderTasks,
		tasks:       tasks,
		now:         time.Now,
	}
}

func statusIcon(status string) string {
	switch status {
	case domain.StatusSuccess:
		return "✅"
	case domain.StatusError:
		return "❌"
	default:
		return "⏳"
	}
}

// Generate builds the report text. Missing agents or tasks are skipped
// rather than failing the whole report.
func (g *Generator) Generate(ctx context.Context, r *domain.ReportDefinition) (string, error) {
	var b strings.Builder
	now := g.now().UTC()

	b.WriteString("## 📊 Backup status report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", now.Format("2006-01-02 15:04:05"))

	if len(r.SelectedAgentIDs) > 0 {
		g.writeAgents(ctx, &b, r.SelectedAgentIDs)
		g.writeFolderTasks(ctx, &b, r.SelectedAgentIDs)
	}
	if len(r.SelectedDatabaseTaskIDs) > 0 {
		g.writeDatabaseTasks(ctx, &b, r.SelectedDatabaseTaskIDs)
	}
	g.writeStats(ctx, &b, r, now.Add(-24*time.Hour))

	b.WriteString("\n---\n*Generated by the backup service*")
	return b.String(), nil
}

func (g *Generator) writeAgents(ctx context.Context, b *strings.Builder, agentIDs []int64) {
	b.WriteString("### 🤖 Agents\n\n")
	for _, id := range agentIDs {
		a, err := g.agents.GetByID(ctx, id)
		if err != nil {
			g.logger.Warn("report: agent lookup failed", zap.Int64("agent_id", id), zap.Error(err))
			continue
		}
		fmt.Fprintf(b, "**%s** (%s)\n", a.Name, a.IPAddress)

		status, err := g.agents.GetStatus(ctx, a.ID)
		if err != nil || status == nil {
			b.WriteString("- Status: ⚠️ Unknown\n\n")
			continue
		}
		if status.IsOnline {
			b.WriteString("- Status: 🟢 Online\n")
		} else {
			b.WriteString("- Status: 🔴 Offline\n")
		}
		if status.DiskTotalGB > 0 {
			used := status.DiskTotalGB - status.DiskFreeGB
			fmt.Fprintf(b, "- Disk: %.2f / %.2f GB (%.1f%%)\n", used, status.DiskTotalGB, used/status.DiskTotalGB*100)
		}
		if status.MemoryTotalMB > 0 {
			used := status.MemoryTotalMB - status.MemoryFreeMB
			fmt.Fprintf(b, "- Memory: %.2f / %.2f MB (%.1f%%)\n", used, status.MemoryTotalMB, used/status.MemoryTotalMB*100)
		}
		if status.CPULoadPercent > 0 {
			fmt.Fprintf(b, "- CPU: %.1f%%\n", status.CPULoadPercent)
		}
		b.WriteString("\n")
	}
}

func (g *Generator) writeFolderTasks(ctx context.Context, b *strings.Builder, agentIDs []int64) {
	b.WriteString("### 📁 Folder backup tasks\n\n")
	wrote := false
	for _, agentID := range agentIDs {
		tasks, err := g.folderTasks.ListByAgent(ctx, agentID)
		if err != nil {
			g.logger.Warn("report: folder task lookup failed", zap.Int64("agent_id", agentID), zap.Error(err))
			continue
		}
		for _, t := range tasks {
			wrote = true
			fmt.Fprintf(b, "**%s**\n", t.Name)
			fmt.Fprintf(b, "- Path: `%s`\n", t.SourcePath)
			if t.Enabled {
				b.WriteString("- Active: ✅ yes\n")
			} else {
				b.WriteString("- Active: ❌ no\n")
			}
			if t.LastStatus != "" {
				fmt.Fprintf(b, "- Last status: %s %s\n", statusIcon(t.LastStatus), t.LastStatus)
			}
			if t.LastRun != nil {
				fmt.Fprintf(b, "- Last run: %s\n", t.LastRun.UTC().Format("2006-01-02 15:04:05"))
			}
			b.WriteString("\n")
		}
	}
	if !wrote {
		b.WriteString("No tasks for the selected agents\n\n")
	}
}

func (g *Generator) writeDatabaseTasks(ctx context.Context, b *strings.Builder, taskIDs []int64) {
	b.WriteString("### 🗄️ Database backup tasks\n\n")
	wrote := false
	for _, id := range taskIDs {
		t, err := g.tasks.GetByID(ctx, id)
		if err != nil {
			g.logger.Warn("report: database task lookup failed", zap.Int64("task_id", id), zap.Error(err))
			continue
		}
		wrote = true
		fmt.Fprintf(b, "**%s**\n", t.Name)
		fmt.Fprintf(b, "- Database: `%s`\n", t.DatabaseName)
		fmt.Fprintf(b, "- Host: %s:%d\n", t.Host, t.Port)
		if t.Enabled {
			b.WriteString("- Active: ✅ yes\n")
		} else {
			b.WriteString("- Active: ❌ no\n")
		}
		if t.LastStatus != "" {
			fmt.Fprintf(b, "- Last status: %s %s\n", statusIcon(t.LastStatus), t.LastStatus)
		}
		if t.LastRun != nil {
			fmt.Fprintf(b, "- Last run: %s\n", t.LastRun.UTC().Format("2006-01-02 15:04:05"))
		}
		b.WriteString("\n")
	}
	if !wrote {
		b.WriteString("No tasks selected\n\n")
	}
}

func (g *Generator) writeStats(ctx context.Context, b *strings.Builder, r *domain.ReportDefinition, cutoff time.Time) {
	b.WriteString("### 📈 Last 24 hours\n\n")

	if len(r.SelectedAgentIDs) > 0 {
		var success, failed int
		for _, agentID := range r.SelectedAgentIDs {
			tasks, err := g.folderTasks.ListByAgent(ctx, agentID)
			if err != nil {
				continue
			}
			for _, t := range tasks {
				history, err := g.folderTasks.ListHistorySince(ctx, t.ID, cutoff)
				if err != nil {
					continue
				}
				for _, h := range history {
					switch h.Status {
					case domain.StatusSuccess:
						success++
					case domain.StatusError:
						failed++
					}
				}
			}
		}
		fmt.Fprintf(b, "- Folder backups: ✅ %d succeeded, ❌ %d failed\n", success, failed)
	}

	if len(r.SelectedDatabaseTaskIDs) > 0 {
		var success, failed int
		for _, taskID := range r.SelectedDatabaseTaskIDs {
			history, err := g.tasks.ListHistorySince(ctx, taskID, cutoff)
			if err != nil {
				continue
			}
			for _, h := range history {
				switch h.Status {
				case domain.StatusSuccess:
					success++
				case domain.StatusError:
					failed++
				}
			}
		}
		fmt.Fprintf(b, "- Database backups: ✅ %d succeeded, ❌ %d failed\n", success, failed)
	}
}
