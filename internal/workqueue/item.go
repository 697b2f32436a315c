// Package workqueue implements the durable FIFO of opaque filesystem
// work items (spec.md §4.6): encoding/decoding the reserved operation
// tags, and the sequential drain loop that applies them after a WCDB
// transaction commits.
package workqueue

import (
	"encoding/json"
	"fmt"
)

// Tag names one of the reserved work-item operations (spec.md §4.6).
type Tag string

const (
	TagInstallFile     Tag = "install-file"
	TagRemoveFile      Tag = "remove-file"
	TagSetExecutable   Tag = "set-executable"
	TagSetReadonly     Tag = "set-readonly"
	TagRecordFileInfo  Tag = "record-fileinfo"
	TagPostcommitRename Tag = "postcommit-rename"
	TagPrejInstall     Tag = "prej-install"
	TagNotify          Tag = "notify"
)

// Item is one self-describing, serializable work-queue record.
type Item struct {
	Tag  Tag             `json:"tag"`
	Args json.RawMessage `json:"args"`
}

// InstallFileArgs renames FromTmp into ToAbspath, applying ExecBit and,
// if Translated, running it through the translation filter on the way.
type InstallFileArgs struct {
	FromTmp     string `json:"from_tmp"`
	ToAbspath   string `json:"to_abspath"`
	ExecBit     bool   `json:"exec_bit"`
	Translated  bool   `json:"translated"`
}

type RemoveFileArgs struct {
	Abspath string `json:"abspath"`
}

type SetExecutableArgs struct {
	Abspath string `json:"abspath"`
	Bit     bool   `json:"bit"`
}

type SetReadonlyArgs struct {
	Abspath string `json:"abspath"`
	Bit     bool   `json:"bit"`
}

type RecordFileInfoArgs struct {
	Abspath string `json:"abspath"`
	Relpath string `json:"relpath"`
}

type PostcommitRenameArgs struct {
	FromAbspath string `json:"from_abspath"`
	ToAbspath   string `json:"to_abspath"`
}

type PrejInstallArgs struct {
	Abspath string `json:"abspath"`
	Content []byte `json:"content"`
}

type NotifyArgs struct {
	Abspath string `json:"abspath"`
	Action  string `json:"action"`
}

func encode(tag Tag, args any) ([]byte, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("workqueue: failed to encode %s args: %w", tag, err)
	}
	return json.Marshal(Item{Tag: tag, Args: raw})
}

func EncodeInstallFile(args InstallFileArgs) ([]byte, error) { return encode(TagInstallFile, args) }
func EncodeRemoveFile(args RemoveFileArgs) ([]byte, error)   { return encode(TagRemoveFile, args) }
func EncodeSetExecutable(args SetExecutableArgs) ([]byte, error) {
	return encode(TagSetExecutable, args)
}
func EncodeSetReadonly(args SetReadonlyArgs) ([]byte, error) { return encode(TagSetReadonly, args) }
func EncodeRecordFileInfo(args RecordFileInfoArgs) ([]byte, error) {
	return encode(TagRecordFileInfo, args)
}
func EncodePostcommitRename(args PostcommitRenameArgs) ([]byte, error) {
	return encode(TagPostcommitRename, args)
}
func EncodePrejInstall(args PrejInstallArgs) ([]byte, error) { return encode(TagPrejInstall, args) }
func EncodeNotify(args NotifyArgs) ([]byte, error)           { return encode(TagNotify, args) }

// Decode parses a serialized work item back into its Tag and raw args.
func Decode(work []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(work, &item); err != nil {
		return Item{}, fmt.Errorf("workqueue: failed to decode item: %w", err)
	}
	return item, nil
}
