package auth

import (
	"hash/crc32"
	"sort"
	"strconv"
	"sync"
)

// ConsistentHashRing 把 token 稳定地映射到某个鉴权缓存节点，
// 节点增减时只影响环上相邻的一段 key。
type ConsistentHashRing struct {
	replicas int
	keys     []uint32          // 虚拟节点哈希，升序
	owners   map[uint32]string // 虚拟节点哈希 -> 节点名
	mu       sync.RWMutex
}

// NewConsistentHashRing 创建哈希环；nodes 为空时退化为单节点环
func NewConsistentHashRing(nodes []string, replicas int) *ConsistentHashRing {
	if replicas <= 0 {
		replicas = 50
	}
	ring := &ConsistentHashRing{
		replicas: replicas,
		owners:   make(map[uint32]string),
	}
	if len(nodes) == 0 {
		nodes = []string{"auth-node-default"}
	}
	ring.Add(nodes...)
	return ring
}

// Add 加入节点，每个节点展开 replicas 个虚拟节点
func (r *ConsistentHashRing) Add(nodes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range nodes {
		first := crc32.ChecksumIEEE([]byte(node + "@0"))
		if owner, ok := r.owners[first]; ok && owner == node {
			continue // 已在环上
		}
		for i := 0; i < r.replicas; i++ {
			h := crc32.ChecksumIEEE([]byte(node + "@" + strconv.Itoa(i)))
			r.keys = append(r.keys, h)
			r.owners[h] = node
		}
	}
	sort.Slice(r.keys, func(i, j int) bool { return r.keys[i] < r.keys[j] })
}

// GetNode 返回 key 顺时针方向遇到的第一个节点
func (r *ConsistentHashRing) GetNode(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.keys) == 0 {
		return ""
	}
	h := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(r.keys), func(i int) bool { return r.keys[i] >= h })
	if idx == len(r.keys) {
		idx = 0
	}
	return r.owners[r.keys[idx]]
}
