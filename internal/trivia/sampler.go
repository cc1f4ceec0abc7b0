// internal/trivia/sampler.go
package trivia

import "math/rand/v2"

// Sample 无放回地随机抽取 min(count, len(items)) 个元素。
// 在副本上做 Fisher–Yates 洗牌，原切片不会被修改；负数 count 视为 0。
func Sample[T any](items []T, count int) []T {
	if count <= 0 || len(items) == 0 {
		return []T{}
	}
	if count > len(items) {
		count = len(items)
	}

	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled[:count:count]
}
