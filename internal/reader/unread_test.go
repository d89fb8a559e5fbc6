package reader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/yamaru/aalog-reader/internal/bookmark"
	"github.com/yamaru/aalog-reader/internal/bookmark/mocks"
	"github.com/yamaru/aalog-reader/internal/config"
	"github.com/yamaru/aalog-reader/internal/locator"
	"github.com/yamaru/aalog-reader/internal/types"
	"github.com/yamaru/aalog-reader/test/fixtures"
)

// UnreadTestSuite covers unread-record scans and bookmark handling
type UnreadTestSuite struct {
	suite.Suite
	tempDir string
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	reader  *Reader
}

func (suite *UnreadTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.ctrl = gomock.NewController(suite.T())
	suite.store = mocks.NewMockStore(suite.ctrl)
	suite.reader = NewLogReader(
		WithLogger(zaptest.NewLogger(suite.T())),
		WithHostResolver(locator.StaticHost(testHost)),
		WithBookmarkStore(suite.store),
	)
}

func (suite *UnreadTestSuite) TearDownTest() {
	suite.reader.Close()
	suite.ctrl.Finish()
}

func (suite *UnreadTestSuite) openSample() {
	filename, err := fixtures.CreateSampleLogFile(suite.tempDir)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.reader.Open(filename))
}

// expectSave records the bookmark passed to Save
func (suite *UnreadTestSuite) expectSave(saved **types.LogRecord) {
	suite.store.EXPECT().Save(gomock.Any()).DoAndReturn(func(record *types.LogRecord) error {
		*saved = record
		return nil
	})
}

func messageNumbers(records []*types.LogRecord) []uint64 {
	return lo.Map(records, func(r *types.LogRecord, _ int) uint64 { return r.MessageNumber })
}

func (suite *UnreadTestSuite) TestNoBookmarkReturnsEverything() {
	suite.openSample()
	suite.store.EXPECT().Load().Return(nil, nil)
	var saved *types.LogRecord
	suite.expectSave(&saved)

	records, err := suite.reader.GetUnreadRecords(10)
	suite.Require().NoError(err)
	suite.Equal([]uint64{102, 101, 100}, messageNumbers(records))

	suite.Require().NotNil(saved)
	suite.Equal(uint64(102), saved.MessageNumber)
	suite.Equal(uint32(210), saved.FileOffset)
	suite.Equal("fail", saved.Message)
}

func (suite *UnreadTestSuite) TestBookmarkExcludesReadRecords() {
	suite.openSample()
	suite.store.EXPECT().Load().Return(&types.LogRecord{MessageNumber: 100}, nil)
	var saved *types.LogRecord
	suite.expectSave(&saved)

	records, err := suite.reader.GetUnreadRecords(10)
	suite.Require().NoError(err)
	suite.Equal([]uint64{102, 101}, messageNumbers(records))
	suite.Equal(uint64(102), saved.MessageNumber)
}

func (suite *UnreadTestSuite) TestNothingUnread() {
	suite.openSample()
	suite.store.EXPECT().Load().Return(&types.LogRecord{MessageNumber: 102}, nil)
	suite.store.EXPECT().Save(gomock.Any()).Times(0)

	records, err := suite.reader.GetUnreadRecords(10)
	suite.Require().NoError(err)
	suite.NotNil(records)
	suite.Empty(records)
}

func (suite *UnreadTestSuite) TestMaxCountTruncatesAndStillAdvancesBookmark() {
	suite.openSample()
	var saved *types.LogRecord
	suite.expectSave(&saved)

	records, err := suite.reader.GetUnreadRecordsSince(0, 2)
	suite.Require().NoError(err)
	suite.Equal([]uint64{102, 101}, messageNumbers(records))
	suite.Equal(uint64(102), saved.MessageNumber)
}

func (suite *UnreadTestSuite) TestDefaultMaxFollowsConfig() {
	suite.Equal(config.DefaultMaxUnread, DefaultMaxUnread)
}

func (suite *UnreadTestSuite) TestNonPositiveMaxUsesDefault() {
	suite.openSample()
	var saved *types.LogRecord
	suite.expectSave(&saved)

	records, err := suite.reader.GetUnreadRecordsSince(0, 0)
	suite.Require().NoError(err)
	suite.Len(records, 3)
}

func (suite *UnreadTestSuite) TestUnreadLoadErrorTreatedAsNoBookmark() {
	suite.openSample()
	suite.store.EXPECT().Load().Return(nil, errors.New("garbled bookmark"))
	var saved *types.LogRecord
	suite.expectSave(&saved)

	records, err := suite.reader.GetUnreadRecords(10)
	suite.Require().NoError(err)
	suite.Len(records, 3)
}

func (suite *UnreadTestSuite) TestSaveFailureReturnsRecords() {
	suite.openSample()
	suite.store.EXPECT().Save(gomock.Any()).Return(errors.New("disk full"))

	records, err := suite.reader.GetUnreadRecordsSince(0, 10)
	suite.Error(err)
	suite.Len(records, 3)
}

func (suite *UnreadTestSuite) TestHeaderOnlyFileHasNothingUnread() {
	filename, err := fixtures.CreateHeaderOnlyLogFile(suite.tempDir)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.reader.Open(filename))
	suite.store.EXPECT().Save(gomock.Any()).Times(0)

	// Header claims messages up to 99 but no record offsets
	records, err := suite.reader.GetUnreadRecordsSince(0, 10)
	suite.Require().NoError(err)
	suite.Empty(records)
}

func (suite *UnreadTestSuite) TestPrevOffsetPastEndStopsScan() {
	data, offsets := fixtures.BinaryLogFile(fixtures.SampleFileSpec())
	// Point the last record's back link beyond the end of the file
	binary.LittleEndian.PutUint32(data[offsets[2]+8:], uint32(len(data)+100))
	filename := filepath.Join(suite.tempDir, "bad_link.aalog")
	suite.Require().NoError(os.WriteFile(filename, data, 0o644))
	suite.Require().NoError(suite.reader.Open(filename))
	var saved *types.LogRecord
	suite.expectSave(&saved)

	records, err := suite.reader.GetUnreadRecordsSince(0, 10)
	suite.Require().NoError(err)
	suite.Equal([]uint64{102}, messageNumbers(records))
	suite.Equal(uint64(102), saved.MessageNumber)
	suite.True(suite.reader.IsOpen())
	suite.Equal(filename, suite.reader.CurrentFile())
}

func (suite *UnreadTestSuite) TestUnreadAcrossRotation() {
	paths, err := fixtures.CreateRotatedLogFiles(suite.tempDir, 3, 4)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.reader.Open(paths[2]))
	var saved *types.LogRecord
	suite.expectSave(&saved)

	records, err := suite.reader.GetUnreadRecordsSince(5, 100)
	suite.Require().NoError(err)
	suite.Equal([]uint64{12, 11, 10, 9, 8, 7, 6}, messageNumbers(records))

	// The scan ends back on the head file with the cursor on its last record
	suite.Equal(paths[2], suite.reader.CurrentFile())
	suite.Equal(uint64(12), suite.reader.Cursor().MessageNumber)
	suite.Equal(uint64(12), saved.MessageNumber)
}

func (suite *UnreadTestSuite) TestUnreadWindowProperties() {
	paths, err := fixtures.CreateRotatedLogFiles(suite.tempDir, 3, 5)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.reader.Open(paths[2]))
	suite.store.EXPECT().Save(gomock.Any()).Return(nil).AnyTimes()

	for _, lastRead := range []uint64{0, 1, 4, 5, 6, 10, 14} {
		for _, maxCount := range []int{1, 3, 5, 8, 20} {
			records, err := suite.reader.GetUnreadRecordsSince(lastRead, maxCount)
			suite.Require().NoError(err)

			suite.LessOrEqual(len(records), maxCount)
			want := lo.Min([]int{maxCount, int(15 - lastRead)})
			suite.Len(records, want, "lastRead=%d max=%d", lastRead, maxCount)
			for i, record := range records {
				suite.Greater(record.MessageNumber, lastRead)
				suite.Equal(uint64(15-i), record.MessageNumber)
			}
		}
	}
}

func (suite *UnreadTestSuite) TestReadBookmarkDelegatesToStore() {
	suite.openSample()
	suite.store.EXPECT().Load().Return(&types.LogRecord{MessageNumber: 42}, nil)

	record, err := suite.reader.ReadBookmark()
	suite.Require().NoError(err)
	suite.Equal(uint64(42), record.MessageNumber)
}

func (suite *UnreadTestSuite) TestWriteBookmarkStoresLastRecord() {
	suite.openSample()
	var saved *types.LogRecord
	suite.expectSave(&saved)

	suite.Require().NoError(suite.reader.WriteBookmark())
	suite.Equal(uint64(102), saved.MessageNumber)
}

func TestUnreadSuite(t *testing.T) {
	suite.Run(t, new(UnreadTestSuite))
}

func TestUnreadWithFileBookmark(t *testing.T) {
	dir := t.TempDir()
	spec := fixtures.SampleFileSpec()
	filename, _, err := fixtures.CreateLogFile(dir, "live.aalog", spec)
	require.NoError(t, err)

	r := NewLogReader(
		WithLogger(zaptest.NewLogger(t)),
		WithHostResolver(locator.StaticHost(testHost)),
	)
	defer r.Close()
	require.NoError(t, r.Open(filename))

	records, err := r.GetUnreadRecords(10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{102, 101, 100}, messageNumbers(records))

	stored, err := bookmark.NewDirectoryStore(dir, bookmark.DefaultFileName, nil).Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, uint64(102), stored.MessageNumber)
	assert.Equal(t, testHost, stored.HostFQDN)

	records, err = r.GetUnreadRecords(10)
	require.NoError(t, err)
	assert.Empty(t, records)

	more := func(msg string, offset time.Duration) fixtures.RecordSpec {
		return fixtures.RecordSpec{
			EventTime: spec.EndTime.Add(offset), LogFlag: "Info",
			Component: "Eng", Message: msg, ProcessName: "p1",
		}
	}
	_, err = fixtures.AppendRecords(filename, spec, more("resumed", time.Second), more("done", 2*time.Second))
	require.NoError(t, err)

	records, err = r.GetUnreadRecords(10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{104, 103}, messageNumbers(records))
	assert.Equal(t, "done", records[0].Message)

	stored, err = r.ReadBookmark()
	require.NoError(t, err)
	assert.Equal(t, uint64(104), stored.MessageNumber)
}

func TestUnreadFromCurrentFile(t *testing.T) {
	dir := t.TempDir()
	paths, err := fixtures.CreateRotatedLogFiles(dir, 2, 3)
	require.NoError(t, err)

	r := NewLogReader(
		WithHostResolver(locator.StaticHost(testHost)),
		WithBookmarkFile("reader.bookmark"),
	)
	defer r.Close()
	require.NoError(t, r.OpenCurrent(dir))
	assert.Equal(t, paths[1], r.CurrentFile())

	records, err := r.GetUnreadRecords(4)
	require.NoError(t, err)
	assert.Equal(t, []uint64{6, 5, 4, 3}, messageNumbers(records))

	stored, err := bookmark.NewDirectoryStore(dir, "reader.bookmark", nil).Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), stored.MessageNumber)
}
