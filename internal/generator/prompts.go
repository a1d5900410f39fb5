/*
   TRAVELPOSTbot - Travel posts generator and publisher bot
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package generator

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Шаблоны запросов к языковой модели. Подстановки: {{comment}}, {{post}}
type Prompts struct {
	Post           string `yaml:"post"`
	CommentContext string `yaml:"comment_context"`
	Hashtags       string `yaml:"hashtags"`
	TravelCheck    string `yaml:"travel_check"`
	ImagePrompt    string `yaml:"image_prompt"`

	FallbackPost        string `yaml:"fallback_post"`
	FallbackComment     string `yaml:"fallback_comment"`
	FallbackHashtags    string `yaml:"fallback_hashtags"`
	FallbackImagePrompt string `yaml:"fallback_image_prompt"`
}

func DefaultPrompts() *Prompts {
	return &Prompts{
		Post: `Напиши текстовый пост для Telegram на русском языке на тему путешествий. Требования к посту:
1. Добавь цепляющий заголовок в первой строке.
2. После заголовка оставь одну пустую строку.
3. Основной текст 1000–1500 символов.
4. Пиши живым, лёгким, вдохновляющим языком.
5. Используй абзацы по 2–4 строки для удобства чтения в Telegram.
6. Можно использовать эмодзи, но не более 5–7 на весь текст.
7. Не используй кавычки, фигурные скобки, обратные слеши, HTML-теги, Markdown-разметку и специальные символы форматирования.
8. Не используй списки с маркерами типа *, -, #. Если нужен список, делай его через нумерацию 1. 2. 3.
9. В конце добавь короткий вовлекающий вопрос к читателю.
10. Текст должен быть полностью готов к публикации без дополнительного редактирования.
Тематика поста:
Советы путешественникам, интересные места, необычные маршруты, лайфхаки в поездках.`,
		CommentContext: `

Дополнительно учти комментарий участника группы:
{{comment}}
Органично интегрируй его смысл в пост.`,
		Hashtags: `Создай 3-5 релевантных хештегов для следующего поста о путешествиях.
Хештеги должны быть популярными и соответствовать содержанию поста.
Выведи их в одну строку, разделив пробелами, без запятых и без дополнительного текста.
Пример правильного формата: #путешествия #советыпутешественникам #отдых

Пост:
{{post}}`,
		TravelCheck: `Определи, относится ли следующий текст к тематике путешествий.
Ответь только YES или NO.
Текст:
{{comment}}`,
		ImagePrompt: `Based on the following Telegram travel post, create a detailed cinematic visual prompt
in English for DALL-E image generation.
The prompt should describe:
- environment
- atmosphere
- lighting
- camera angle
- mood
- realistic style
Post:
{{post}}`,
		FallbackPost: `Открой для себя мир за окном! 🌍

Путешествия делают нас свободнее, мудрее и счастливее. Не ждите идеального момента - создайте его сами!

Соберите рюкзак, купите билет и отправляйтесь в путь. Пусть каждый день приносит новые впечатления и знакомства.

Какое место мечтаете посетить в этом году?

#путешествия #открытия #смелыелюди`,
		FallbackComment: `Открой для себя мир за окном! 🌍

Путешествия делают нас свободнее, мудрее и счастливее. Не ждите идеального момента - создайте его сами!

Соберите рюкзак, купите билет и отправляйтесь в путь. Пусть каждый день приносит новые впечатления и знакомства.

Напомним комментарий одного из участников: "{{comment}}..."

Какое место мечтаете посетить в этом году?

#путешествия #открытия #смелыелюди`,
		FallbackHashtags:    "#путешествия #путешественникам #отдых",
		FallbackImagePrompt: "Beautiful travel destination, cinematic style, natural lighting",
	}
}

// Пустые поля берутся из шаблонов по умолчанию
func (p *Prompts) fillDefaults() {
	defaults := DefaultPrompts()

	fill := func(value *string, fallback string) {
		if strings.TrimSpace(*value) == "" {
			*value = fallback
		}
	}

	fill(&p.Post, defaults.Post)
	fill(&p.CommentContext, defaults.CommentContext)
	fill(&p.Hashtags, defaults.Hashtags)
	fill(&p.TravelCheck, defaults.TravelCheck)
	fill(&p.ImagePrompt, defaults.ImagePrompt)
	fill(&p.FallbackPost, defaults.FallbackPost)
	fill(&p.FallbackComment, defaults.FallbackComment)
	fill(&p.FallbackHashtags, defaults.FallbackHashtags)
	fill(&p.FallbackImagePrompt, defaults.FallbackImagePrompt)
}

// Загружает шаблоны из YAML. Пустой путь или отсутствующий файл - шаблоны по умолчанию
func LoadPrompts(path string) (*Prompts, error) {
	if path == "" {
		return DefaultPrompts(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("Файл шаблонов %s не найден, используем шаблоны по умолчанию", path)
		return DefaultPrompts(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}

	var prompts Prompts
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("разбор %s: %w", path, err)
	}
	prompts.fillDefaults()

	log.Printf("Шаблоны запросов загружены из %s", path)

	return &prompts, nil
}

func render(template string, values map[string]string) string {
	for key, value := range values {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}
	return template
}

// Обрезает строку до limit символов (не байт)
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
