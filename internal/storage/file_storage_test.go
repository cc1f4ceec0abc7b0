package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/Corphon/LifeJourney/internal/errors"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(completedAt time.Time) *models.JourneyRecord {
	return &models.JourneyRecord{
		ID:        uuid.NewString(),
		SessionID: "session-1",
		Profile: models.UserProfile{
			BasicInfo: models.BasicInfo{Gender: "女", MBTI: "INFJ"},
			Answers:   []models.QuizAnswer{{Question: "周末？", Answer: "看书"}},
		},
		Personality: "安静而坚定",
		UserData:    json.RawMessage(`{"name":"小红"}`),
		History: []*models.StageHistoryEntry{
			{StageIndex: 0, Stage: models.DefaultStages[0], Story: "故事", Choice: "留下", Outcome: "结局"},
			nil,
		},
		Summary:     "平凡而精彩的一生",
		CompletedAt: completedAt.UTC().Truncate(time.Millisecond),
	}
}

func TestFileArchiveSaveLoad(t *testing.T) {
	archive, err := NewFileArchive(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	record := sampleRecord(time.Now())
	require.NoError(t, archive.Save(ctx, record))

	loaded, err := archive.Load(ctx, record.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(record, loaded, cmpopts.IgnoreFields(models.JourneyRecord{}, "UserData")); diff != "" {
		t.Errorf("存档内容不一致 (-want +got):\n%s", diff)
	}
	assert.JSONEq(t, string(record.UserData), string(loaded.UserData))

	_, err = os.Stat(filepath.Join(archive.BaseDir, record.ID+".json.tmp"))
	assert.True(t, os.IsNotExist(err), "临时文件应已重命名")
}

func TestFileArchiveSaveInvalidatesCache(t *testing.T) {
	archive, err := NewFileArchive(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	record := sampleRecord(time.Now())
	require.NoError(t, archive.Save(ctx, record))
	_, err = archive.Load(ctx, record.ID)
	require.NoError(t, err)

	updated := *record
	updated.Summary = "改写后的回顾"
	require.NoError(t, archive.Save(ctx, &updated))

	loaded, err := archive.Load(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "改写后的回顾", loaded.Summary)
}

func TestFileArchiveLoadErrors(t *testing.T) {
	archive, err := NewFileArchive(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = archive.Load(ctx, uuid.NewString())
	assert.True(t, apperrors.IsNotFoundError(err))

	for _, id := range []string{"../etc/passwd", "abc", "", "zzzzzzzz-zzzz"} {
		_, err = archive.Load(ctx, id)
		assert.True(t, apperrors.IsValidationError(err), id)
	}

	err = archive.Save(ctx, &models.JourneyRecord{ID: "../../x"})
	assert.True(t, apperrors.IsValidationError(err))
	assert.True(t, apperrors.IsValidationError(archive.Save(ctx, nil)))
}

func TestFileArchiveList(t *testing.T) {
	dir := t.TempDir()
	archive, err := NewFileArchive(dir)
	require.NoError(t, err)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		record := sampleRecord(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, archive.Save(ctx, record))
		ids = append(ids, record.ID)
	}

	// 损坏的文件与无关文件都应被跳过
	require.NoError(t, os.WriteFile(filepath.Join(dir, uuid.NewString()+".json"), []byte("{oops"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("hi"), 0644))

	all, err := archive.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)
	assert.Equal(t, 1, all[0].Stages)

	limited, err := archive.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
