package workqueue

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentvc/wcengine/internal/notify"
)

type fakeQueue struct {
	items           []Fetched
	recordedRelpath string
	recordedSize    int64
	recordedModTime time.Time
}

func (q *fakeQueue) WQFetch() (*Fetched, error) {
	if len(q.items) == 0 {
		return nil, nil
	}
	item := q.items[0]
	return &item, nil
}

func (q *fakeQueue) WQCompleted(id int64) error {
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *fakeQueue) RecordFileInfo(relpath string, size int64, modTime time.Time) error {
	q.recordedRelpath = relpath
	q.recordedSize = size
	q.recordedModTime = modTime
	return nil
}

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDrainInstallFile(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, "tmp-1")
	require.NoError(t, os.WriteFile(tmp, []byte("hello"), 0o644))
	dest := filepath.Join(dir, "target.txt")

	work, err := EncodeInstallFile(InstallFileArgs{FromTmp: tmp, ToAbspath: dest})
	require.NoError(t, err)
	q := &fakeQueue{items: []Fetched{{ID: 1, Work: work}}}

	d := NewDrainer(newTestLogger(), q, nil, notify.Nop)
	require.NoError(t, d.Drain())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Empty(t, q.items)
}

func TestDrainInstallFileIsIdempotentOnReplay(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, "tmp-1")
	require.NoError(t, os.WriteFile(tmp, []byte("hello"), 0o644))
	dest := filepath.Join(dir, "target.txt")
	require.NoError(t, os.Rename(tmp, dest)) // simulate a prior partial drain

	work, err := EncodeInstallFile(InstallFileArgs{FromTmp: tmp, ToAbspath: dest})
	require.NoError(t, err)
	q := &fakeQueue{items: []Fetched{{ID: 1, Work: work}}}

	d := NewDrainer(newTestLogger(), q, nil, notify.Nop)
	assert.NoError(t, d.Drain())
}

func TestDrainRemoveFileIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "gone.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	work, err := EncodeRemoveFile(RemoveFileArgs{Abspath: target})
	require.NoError(t, err)
	q := &fakeQueue{items: []Fetched{{ID: 1, Work: work}, {ID: 2, Work: work}}}

	d := NewDrainer(newTestLogger(), q, nil, notify.Nop)
	require.NoError(t, d.Drain())
	_, err = os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestDrainSetExecutable(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "script.sh")
	require.NoError(t, os.WriteFile(target, []byte("#!/bin/sh"), 0o644))

	work, err := EncodeSetExecutable(SetExecutableArgs{Abspath: target, Bit: true})
	require.NoError(t, err)
	q := &fakeQueue{items: []Fetched{{ID: 1, Work: work}}}

	d := NewDrainer(newTestLogger(), q, nil, notify.Nop)
	require.NoError(t, d.Drain())

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o111)
}

func TestDrainNotifyDeliversEvent(t *testing.T) {
	work, err := EncodeNotify(NotifyArgs{Abspath: "/wc/foo.txt", Action: "add"})
	require.NoError(t, err)
	q := &fakeQueue{items: []Fetched{{ID: 1, Work: work}}}

	var got notify.Event
	d := NewDrainer(newTestLogger(), q, nil, func(e notify.Event) { got = e })
	require.NoError(t, d.Drain())
	assert.Equal(t, "/wc/foo.txt", got.AbsPath)
	assert.Equal(t, notify.ActionAdd, got.Action)
}

func TestDrainRecordFileInfoPersistsSizeAndModTime(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(target, []byte("hello"), 0o644))

	work, err := EncodeRecordFileInfo(RecordFileInfoArgs{Abspath: target, Relpath: "file.txt"})
	require.NoError(t, err)
	q := &fakeQueue{items: []Fetched{{ID: 1, Work: work}}}

	d := NewDrainer(newTestLogger(), q, nil, notify.Nop)
	require.NoError(t, d.Drain())

	assert.Equal(t, "file.txt", q.recordedRelpath)
	assert.EqualValues(t, 5, q.recordedSize)
	assert.False(t, q.recordedModTime.IsZero())
}

func TestDrainRecordFileInfoIsNoopWhenFileMissing(t *testing.T) {
	work, err := EncodeRecordFileInfo(RecordFileInfoArgs{Abspath: "/does/not/exist", Relpath: "gone.txt"})
	require.NoError(t, err)
	q := &fakeQueue{items: []Fetched{{ID: 1, Work: work}}}

	d := NewDrainer(newTestLogger(), q, nil, notify.Nop)
	require.NoError(t, d.Drain())
	assert.Empty(t, q.recordedRelpath)
}

func TestDrainHaltsOnNonTransientError(t *testing.T) {
	work, err := EncodeInstallFile(InstallFileArgs{FromTmp: "/does/not/exist", ToAbspath: "/also/does/not/exist"})
	require.NoError(t, err)
	q := &fakeQueue{items: []Fetched{{ID: 1, Work: work}, {ID: 2, Work: work}}}

	d := NewDrainer(newTestLogger(), q, nil, notify.Nop)
	assert.Error(t, d.Drain())
	assert.Len(t, q.items, 2) // drain halted before acknowledging either item
}
