package project

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"cjls/internal/cache"
)

// ComputeDigest hashes a package's ordered source texts and folds in
// each dependency's digest by XOR, per spec §3/§4.B: "digest = H(ordered
// source texts XOR H(each dependency's digest))". Sources must already
// be in a stable order (callers sort by file path) so the digest is
// independent of filesystem iteration order.
func ComputeDigest(sources [][]byte, depDigests []cache.Digest) cache.Digest {
	h := xxhash.New()
	for _, s := range sources {
		_, _ = h.Write(s)
		_, _ = h.Write([]byte{0}) // separator, avoids ("ab","c") colliding with ("a","bc")
	}
	sum := h.Sum64()
	for _, d := range depDigests {
		sum ^= uint64(d)
	}
	return cache.Digest(sum)
}

// orderedDepDigests returns dep digests sorted by dependency package name
// so ComputeDigest's XOR fold doesn't depend on map iteration order.
func orderedDepDigests(depDigestsByName map[string]cache.Digest) []cache.Digest {
	names := make([]string, 0, len(depDigestsByName))
	for n := range depDigestsByName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]cache.Digest, len(names))
	for i, n := range names {
		out[i] = depDigestsByName[n]
	}
	return out
}
