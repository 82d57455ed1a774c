package bot

import (
	"strconv"
	"strings"
)

// Reply decorations, matching the aesthetic of the service.
const (
	emojiPalmTree    = "\U0001F334"
	emojiVideoCamera = "\U0001F4F9"
	emojiCD          = "\U0001F4BF"
)

const (
	halfwidthRunes = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ!\"#$%&()*+,-./:;<=>?@[]^_`{|}~"
	fullwidthRunes = "０１２３４５６７８９ａｂｃｄｅｆｇｈｉｊｋｌｍｎｏｐｑｒｓｔｕｖｗｘｙｚＡＢＣＤＥＦＧＨＩＪＫＬＭＮＯＰＱＲＳＴＵＶＷＸＹＺ！゛＃＄％＆（）＊＋、ー。／：；〈＝〉？＠［］＾＿‘｛｜｝～"
)

var fullwidthTable = func() map[rune]rune {
	table := make(map[rune]rune, len(halfwidthRunes))
	full := []rune(fullwidthRunes)
	for i, r := range []rune(halfwidthRunes) {
		table[r] = full[i]
	}
	return table
}()

// Fullwidth converts ASCII letters, digits, and punctuation to their
// fullwidth equivalents. Runes without a mapping pass through unchanged.
func Fullwidth(text string) string {
	var b strings.Builder
	b.Grow(len(text) * 3)
	for _, r := range text {
		if full, ok := fullwidthTable[r]; ok {
			b.WriteRune(full)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func welcomeMessage() string {
	return emojiPalmTree + " Ｗｅｌｃｏｍｅ ｔｏ Ｖｉｒｔｕａｌ Ｄｒｅａｍｓ. " + emojiPalmTree +
		"\n\nＨＯＷ ＴＯ ＵＳＥ:\n" +
		emojiCD + " /vapor \"song name\"\n" +
		emojiVideoCamera + " /vapor YouTube URL."
}

func workingMessage() string {
	return emojiPalmTree + " ＷＯＲＫＩＮＧ．．．\nThis can take up a bit more than a minute. Sit back and relax."
}

func errorMessage(reason string) string {
	return emojiCD + " ＥＲＲＯＲ.\n" + reason
}

func busyMessage() string {
	return emojiCD + " ＢＵＳＹ.\nToo many requests right now. Try again in a minute."
}

func unknownCommandMessage() string {
	return emojiCD + " ＥＲＲＯＲ.\nThis is not a valid command. Use /help to find out more."
}

func purgedMessage(removed int) string {
	if removed == 1 {
		return emojiCD + " ＰＵＲＧＥＤ.\nRemoved 1 cached file."
	}
	return emojiCD + " ＰＵＲＧＥＤ.\nRemoved " + strconv.Itoa(removed) + " cached files."
}
