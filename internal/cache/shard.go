package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
)

const (
	astExt   = ".ast"
	indexExt = ".idx"

	errWriteTemp   = "failed to write temp shard file"
	errRenameShard = "failed to install shard file"
	errReadShard   = "failed to read shard file"
	errMkdirShard  = "failed to create shard directory"
)

// Digest identifies the content state of a package: its ordered source
// bytes XORed with each dependency's digest (spec §3/§4.B). Callers
// compute Digest; cache only formats and compares it.
type Digest uint64

// String renders the digest as the fixed-width hex form used in shard
// filenames.
func (d Digest) String() string {
	return fmt.Sprintf("%016x", uint64(d))
}

// ParseDigest parses a shard filename's digest component.
func ParseDigest(s string) (Digest, bool) {
	var v uint64
	if _, err := fmt.Sscanf(s, "%016x", &v); err != nil {
		return 0, false
	}
	return Digest(v), true
}

// shardName builds the "<pkg>.<digest>.<ext>" filename spec §3 specifies.
func shardName(pkg string, d Digest, ext string) string {
	return pkg + "." + d.String() + ext
}

// parseShardName splits a shard filename back into its package and
// digest, or reports ok=false if name doesn't match the expected shape.
func parseShardName(name, ext string) (pkg string, d Digest, ok bool) {
	if !strings.HasSuffix(name, ext) {
		return "", 0, false
	}
	base := strings.TrimSuffix(name, ext)
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return "", 0, false
	}
	pkg = base[:idx]
	d, ok = ParseDigest(base[idx+1:])
	if !ok {
		return "", 0, false
	}
	return pkg, d, true
}

// writeShardAtomic writes b to dir/name by writing to a temp file in the
// same directory and renaming over the destination, so concurrent readers
// always see either the previous shard or the new one in full (spec §5).
// This generalizes the teacher's cache.Local.Store (create-then-write)
// with true atomicity, which shard files need and immutable OCI blobs did
// not.
func writeShardAtomic(fs afero.Fs, dir, name string, b []byte) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errMkdirShard)
	}
	tmp := filepath.Join(dir, "."+name+".tmp")
	if err := afero.WriteFile(fs, tmp, b, 0o644); err != nil {
		return errors.Wrap(err, errWriteTemp)
	}
	if err := fs.Rename(tmp, filepath.Join(dir, name)); err != nil {
		return errors.Wrap(err, errRenameShard)
	}
	return nil
}

// readShardVerified reads dir/name and checks its trailing xxhash64
// verifier. A verification failure deletes the file and returns
// ok=false, never an error the caller must special-case: per spec §4.A "a
// shard failing verification is deleted and treated as absent."
func readShardVerified(fs afero.Fs, dir, name string) (payload []byte, ok bool) {
	path := filepath.Join(dir, name)
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, false
	}
	if len(b) < 8 {
		_ = fs.Remove(path)
		return nil, false
	}
	body, sum := b[:len(b)-8], b[len(b)-8:]
	want := xxhash.Sum64(body)
	got := beUint64(sum)
	if want != got {
		_ = fs.Remove(path)
		return nil, false
	}
	return body, true
}

// sealShard appends the trailing xxhash64 verifier to body.
func sealShard(body []byte) []byte {
	sum := xxhash.Sum64(body)
	return append(body, beBytes(sum)...)
}

func beBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// scanDir walks dir for shard files matching ext and returns the latest
// digest recorded per package (spec §4.A: "on startup, the directories
// are scanned once into an in-memory {pkg -> digest} map"). Packages with
// more than one file on disk (a prior crash mid-write) keep the most
// recently modified one and the rest are removed, since spec requires at
// most one live file per package per directory.
func scanDir(fs afero.Fs, dir, ext string) map[string]Digest {
	result := make(map[string]Digest)
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return result
	}
	seen := make(map[string]os.FileInfo)
	for _, info := range entries {
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		pkg, digest, ok := parseShardName(info.Name(), ext)
		if !ok {
			continue
		}
		if prev, exists := seen[pkg]; exists {
			stale := filepath.Join(dir, shardName(pkg, result[pkg], ext))
			if info.ModTime().After(prev.ModTime()) {
				_ = fs.Remove(stale)
				seen[pkg] = info
				result[pkg] = digest
			} else {
				_ = fs.Remove(filepath.Join(dir, info.Name()))
			}
			continue
		}
		seen[pkg] = info
		result[pkg] = digest
	}
	return result
}
