package cache

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardNameRoundTrip(t *testing.T) {
	cases := map[string]struct {
		pkg string
		d   Digest
		ext string
	}{
		"simple":      {pkg: "pkg.foo", d: Digest(0xdeadbeef), ext: indexExt},
		"zero digest": {pkg: "a", d: Digest(0), ext: astExt},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			name := shardName(tc.pkg, tc.d, tc.ext)
			pkg, d, ok := parseShardName(name, tc.ext)
			require.True(t, ok)
			assert.Equal(t, tc.pkg, pkg)
			assert.Equal(t, tc.d, d)
		})
	}
}

func TestParseShardNameRejectsWrongExt(t *testing.T) {
	_, _, ok := parseShardName("pkg.deadbeef00000000.idx", astExt)
	assert.False(t, ok)
}

func TestWriteShardAtomicThenReadVerified(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := []byte("hello shard")

	err := writeShardAtomic(fs, "/cache/index", "pkg.0000000000000001.idx", sealShard(body))
	require.NoError(t, err)

	got, ok := readShardVerified(fs, "/cache/index", "pkg.0000000000000001.idx")
	require.True(t, ok)
	assert.Equal(t, body, got)
}

func TestReadShardVerifiedDeletesOnCorruption(t *testing.T) {
	fs := afero.NewMemMapFs()
	name := "pkg.0000000000000001.idx"
	sealed := sealShard([]byte("hello shard"))
	sealed[0] ^= 0xff // corrupt the payload without touching the checksum length

	require.NoError(t, afero.WriteFile(fs, "/cache/index/"+name, sealed, 0o644))

	_, ok := readShardVerified(fs, "/cache/index", name)
	assert.False(t, ok)

	exists, err := afero.Exists(fs, "/cache/index/"+name)
	require.NoError(t, err)
	assert.False(t, exists, "corrupt shard should be removed")
}

func TestReadShardVerifiedMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, ok := readShardVerified(fs, "/cache/index", "absent.0000000000000001.idx")
	assert.False(t, ok)
}

func TestScanDirKeepsOneShardOnDuplicate(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/cache/index"

	require.NoError(t, afero.WriteFile(fs, dir+"/pkg.0000000000000001.idx", sealShard([]byte("old")), 0o644))
	require.NoError(t, afero.WriteFile(fs, dir+"/pkg.0000000000000002.idx", sealShard([]byte("new")), 0o644))

	result := scanDir(fs, dir, indexExt)
	require.Len(t, result, 1)
	d, ok := result["pkg"]
	require.True(t, ok)
	assert.True(t, d == Digest(1) || d == Digest(2), "should have kept one of the two shards")
}

func TestScanDirIgnoresUnrelatedFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/cache/index"
	require.NoError(t, afero.WriteFile(fs, dir+"/pkg.0000000000000001.idx", sealShard([]byte("ok")), 0o644))
	require.NoError(t, afero.WriteFile(fs, dir+"/notes.txt", []byte("ignore me"), 0o644))
	require.NoError(t, afero.WriteFile(fs, dir+"/.hidden.idx", []byte("ignore me too"), 0o644))

	result := scanDir(fs, dir, indexExt)
	assert.Len(t, result, 1)
	assert.Contains(t, result, "pkg")
}
