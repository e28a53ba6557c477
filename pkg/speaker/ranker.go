package speaker

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"
)

// RankedEntry は順位付けの結果の1要素です。評価ごとに作り直されます。
type RankedEntry struct {
	ChannelID   string    `json:"channel_id"`
	IsSelf      bool      `json:"is_self"`
	IsPinned    bool      `json:"is_pinned"`
	InSpeech    bool      `json:"in_speech"`
	SpeechStart time.Time `json:"speech_start"`
	AudioLevel  float64   `json:"audio_level"`
	// PreviousRank は前回の順位。前回存在しなかった場合は -1
	PreviousRank int `json:"previous_rank"`
}

type rankCandidate struct {
	RankedEntry
	seq uint64
}

// Rank は全チャネルを表示優先度の順に並べます。
//
// 優先順位は、ピン留め、発話中、発話開始の早さ、音声レベルの順です。
// どちらも発話していない場合は前回の順位を保ち、レベルの揺らぎで並びが変わらないようにします。
// 前回の順位にないチャネルは既存チャネルの後ろに追加順で並びます。
// 同じ入力に対しては常に同じ順序を返します。
func Rank(channels []*Channel, previous []string) []RankedEntry {
	previousIndex := make(map[string]int, len(previous))
	for i, id := range previous {
		if _, ok := previousIndex[id]; !ok {
			previousIndex[id] = i
		}
	}

	candidates := lo.Map(channels, func(c *Channel, _ int) rankCandidate {
		rank, ok := previousIndex[c.ID]
		if !ok {
			rank = -1
		}

		return rankCandidate{
			RankedEntry: RankedEntry{
				ChannelID:    c.ID,
				IsSelf:       c.IsSelf(),
				IsPinned:     c.Pinned,
				InSpeech:     c.InSpeech,
				SpeechStart:  c.SpeechStart,
				AudioLevel:   c.Level,
				PreviousRank: rank,
			},
			seq: c.seq,
		}
	})

	slices.SortFunc(candidates, compareCandidates)

	return lo.Map(candidates, func(c rankCandidate, _ int) RankedEntry {
		return c.RankedEntry
	})
}

func compareCandidates(a, b rankCandidate) int {
	if a.IsPinned != b.IsPinned {
		return preferTrue(a.IsPinned)
	}

	if a.InSpeech != b.InSpeech {
		return preferTrue(a.InSpeech)
	}

	if a.InSpeech {
		// 先に話し始めた方を前に
		if c := a.SpeechStart.Compare(b.SpeechStart); c != 0 {
			return c
		}
		if a.AudioLevel != b.AudioLevel {
			return -cmp.Compare(a.AudioLevel, b.AudioLevel)
		}
	}

	if c := comparePreviousRank(a.PreviousRank, b.PreviousRank); c != 0 {
		return c
	}

	return cmp.Compare(a.seq, b.seq)
}

func preferTrue(a bool) int {
	if a {
		return -1
	}
	return 1
}

// comparePreviousRank は前回順位で比較します。前回いなかったもの(-1)は後ろ
func comparePreviousRank(a, b int) int {
	switch {
	case a < 0 && b < 0:
		return 0
	case a < 0:
		return 1
	case b < 0:
		return -1
	default:
		return cmp.Compare(a, b)
	}
}

func rankedIDs(ranking []RankedEntry) []string {
	return lo.Map(ranking, func(r RankedEntry, _ int) string {
		return r.ChannelID
	})
}
