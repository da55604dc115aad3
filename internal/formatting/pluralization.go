package formatting

// pluralize выбирает форму слова для числа: одна, две-четыре, много
func pluralize(count int, one, few, many string) string {
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}

// PluralizeSessions возвращает правильное склонение слова "занятие"
func PluralizeSessions(count int) string {
	return pluralize(count, "занятие", "занятия", "занятий")
}

// PluralizeSlots возвращает правильное склонение слова "слот"
func PluralizeSlots(count int) string {
	return pluralize(count, "слот", "слота", "слотов")
}
