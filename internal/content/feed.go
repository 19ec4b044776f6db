package content

import (
	"math/rand"

	"github.com/user/calibrai/internal/types"
)

// BiasedPosts groups feed posts by the trait polarity they react to.
type BiasedPosts struct {
	High []types.FeedPost `json:"high"`
	Low  []types.FeedPost `json:"low"`
}

// Feed is the full simulated social feed catalog.
type Feed struct {
	BiasedPosts struct {
		Empathy    BiasedPosts `json:"empathy"`
		Conformism BiasedPosts `json:"conformism"`
		Caution    BiasedPosts `json:"caution"`
		Optimism   BiasedPosts `json:"optimism"`
	} `json:"biased_posts"`
	ThumbsUpPosts   []types.FeedPost `json:"thumbs_up_posts"`
	ThumbsDownPosts []types.FeedPost `json:"thumbs_down_posts"`
	ImageSkillPosts []types.FeedPost `json:"image_skill_posts"`
	GenericPosts    []types.FeedPost `json:"generic_posts"`
}

// FeedSelection are the inputs driving which posts appear between
// iterations.
type FeedSelection struct {
	GameState            types.GameState
	HasImageSkill        bool
	CumulativeThumbsUp   int
	CumulativeThumbsDown int
}

// biasThreshold is the iteration-local axis magnitude at which the feed
// starts reacting to the agent's behavior.
const biasThreshold = 3

// satisfactionHigh and satisfactionLow bound the cumulative thumbs-up ratio
// at which the feed praises or turns on the agent.
const (
	satisfactionHigh = 0.7
	satisfactionLow  = 0.4
)

// SelectPosts picks the posts to display for the current state: one per
// biased axis (or a single random biased post when no axis crosses the
// threshold), a reaction post when the cumulative satisfaction ratio is
// lopsided, an image-skill post when Vision is owned, then generic filler
// up to count.
func (f *Feed) SelectPosts(sel FeedSelection, count int, rng *rand.Rand) []types.FeedPost {
	selected := []types.FeedPost{}

	pick := func(posts []types.FeedPost) {
		if len(posts) > 0 {
			selected = append(selected, posts[rng.Intn(len(posts))])
		}
	}

	state := sel.GameState
	axes := []struct {
		value int
		posts BiasedPosts
	}{
		{state.Empathy, f.BiasedPosts.Empathy},
		{state.Conformism, f.BiasedPosts.Conformism},
		{state.Caution, f.BiasedPosts.Caution},
		{state.Optimism, f.BiasedPosts.Optimism},
	}
	for _, axis := range axes {
		if axis.value >= biasThreshold {
			pick(axis.posts.High)
		} else if axis.value <= -biasThreshold {
			pick(axis.posts.Low)
		}
	}

	// Neutral play still gets one biased voice, drawn at random from the
	// empathy and conformism pools.
	if len(selected) == 0 {
		candidates := [][]types.FeedPost{}
		for _, pool := range [][]types.FeedPost{
			f.BiasedPosts.Empathy.High,
			f.BiasedPosts.Empathy.Low,
			f.BiasedPosts.Conformism.High,
			f.BiasedPosts.Conformism.Low,
		} {
			if len(pool) > 0 {
				candidates = append(candidates, pool)
			}
		}
		if len(candidates) > 0 {
			pick(candidates[rng.Intn(len(candidates))])
		}
	}

	totalThumbs := sel.CumulativeThumbsUp + sel.CumulativeThumbsDown
	if totalThumbs > 0 {
		ratio := float64(sel.CumulativeThumbsUp) / float64(totalThumbs)
		if ratio >= satisfactionHigh {
			pick(f.ThumbsUpPosts)
		} else if ratio <= satisfactionLow {
			pick(f.ThumbsDownPosts)
		}
	}

	if sel.HasImageSkill {
		pick(f.ImageSkillPosts)
	}

	// Generic filler, without repeats.
	if len(f.GenericPosts) > 0 {
		order := rng.Perm(len(f.GenericPosts))
		for _, i := range order {
			if len(selected) >= count {
				break
			}
			selected = append(selected, f.GenericPosts[i])
		}
	}

	if len(selected) > count {
		selected = selected[:count]
	}
	return selected
}
