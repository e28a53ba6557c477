package speaker

import "time"

// track は発話/無音の判定結果にヒステリシスをかけて InSpeech を更新します。
//
// 発話の判定が ConsecutiveVoiceMs 続いたときに初めて発話開始とし、
// 無音の判定が ConsecutiveSilenceMs 続いたときに初めて発話終了とします。
// 判定の途中で逆側の判定が来た場合、その検査は破棄されます。
func (c *Channel) track(voice bool, now time.Time, cfg Config) {
	if voice {
		c.trackVoice(now, cfg.consecutiveVoice())
		c.speechEndTest = time.Time{}
		return
	}

	c.trackSilence(now, cfg.consecutiveSilence())
	c.speechStartTest = time.Time{}
}

func (c *Channel) trackVoice(now time.Time, dwell time.Duration) {
	if c.InSpeech {
		return
	}

	if c.speechStartTest.IsZero() {
		c.speechStartTest = now
		return
	}

	if now.Sub(c.speechStartTest) < dwell {
		return
	}

	c.InSpeech = true
	c.speechStartTest = time.Time{}

	// 発話区間の開始時刻。区間内での再突入ではリセットしない
	if c.SpeechStart.IsZero() {
		c.SpeechStart = now
	}
}

func (c *Channel) trackSilence(now time.Time, dwell time.Duration) {
	if !c.InSpeech {
		return
	}

	if c.speechEndTest.IsZero() {
		c.speechEndTest = now
		return
	}

	if now.Sub(c.speechEndTest) < dwell {
		return
	}

	c.InSpeech = false
	c.speechEndTest = time.Time{}
	c.SpeechStart = time.Time{}
}
