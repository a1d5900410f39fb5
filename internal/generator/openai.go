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

// Генерация текстов и изображений через OpenAI
package generator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	textModel      = openai.GPT4oMini
	requestTimeout = 60 * time.Second
	imageTimeout   = 120 * time.Second
)

var errEmptyResponse = errors.New("пустой ответ модели")

type Options struct {
	APIKey string
	// Для совместимых API и тестов
	BaseURL string
	Prompts *Prompts
	// Статусные сообщения администратору, может быть nil
	Notify func(message string)
}

type Generator struct {
	client  *openai.Client
	prompts *Prompts
	notify  func(message string)
}

// Без ключа API генератор работает только на резервных текстах
func New(options Options) *Generator {
	generator := &Generator{
		prompts: options.Prompts,
		notify:  options.Notify,
	}
	if generator.prompts == nil {
		generator.prompts = DefaultPrompts()
	}
	if generator.notify == nil {
		generator.notify = func(string) {}
	}

	if options.APIKey != "" {
		config := openai.DefaultConfig(options.APIKey)
		if options.BaseURL != "" {
			config.BaseURL = options.BaseURL
		}
		generator.client = openai.NewClientWithConfig(config)
	}

	return generator
}

func (g *Generator) Configured() bool {
	return g.client != nil
}

func (g *Generator) chat(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	response, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: textModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("запрос к %s: %w", textModel, err)
	}

	if len(response.Choices) == 0 {
		return "", errEmptyResponse
	}

	content := strings.TrimSpace(response.Choices[0].Message.Content)
	if content == "" {
		return "", errEmptyResponse
	}

	return content, nil
}

// Относится ли комментарий к путешествиям. При любой ошибке - нет
func (g *Generator) IsTravelRelated(ctx context.Context, comment string) bool {
	if strings.TrimSpace(comment) == "" || !g.Configured() {
		return false
	}

	answer, err := g.chat(ctx, render(g.prompts.TravelCheck, map[string]string{"comment": comment}), 0, 10)
	if err != nil {
		log.Printf("Ошибка при проверке тематики комментария: %s", err)
		g.notify(fmt.Sprintf("⚠️ Ошибка при проверке тематики комментария: %s", err))
		return false
	}

	related := strings.ToUpper(answer) == "YES"
	log.Printf("Проверка тематики комментария %q -> %v", truncate(comment, 50), related)

	return related
}

func (g *Generator) generateHashtags(ctx context.Context, post string) string {
	hashtags, err := g.chat(ctx, render(g.prompts.Hashtags, map[string]string{"post": truncate(post, 1000)}), 0.3, 100)
	if err != nil {
		log.Printf("Ошибка при генерации хештегов: %s", err)
		g.notify(fmt.Sprintf("⚠️ Ошибка при генерации хештегов: %s", err))
		return g.prompts.FallbackHashtags
	}

	return normalizeHashtags(hashtags)
}

// Каждое слово строки превращается в хештег
func normalizeHashtags(hashtags string) string {
	words := strings.Fields(strings.ReplaceAll(hashtags, ",", " "))
	for i, word := range words {
		if !strings.HasPrefix(word, "#") {
			words[i] = "#" + word
		}
	}
	return strings.Join(words, " ")
}

// Текст поста с хештегами. extra - комментарий участника для персонализации
func (g *Generator) GenerateText(ctx context.Context, extra string) string {
	if !g.Configured() {
		log.Printf("OPENAI_API_KEY не установлен, используем резервный пост")
		g.notify("📝 OPENAI_API_KEY не установлен, используем резервный пост")
		return g.fallbackPost(extra)
	}

	prompt := g.prompts.Post
	if extra != "" {
		prompt += render(g.prompts.CommentContext, map[string]string{"comment": extra})
	}

	post, err := g.chat(ctx, prompt, 0.7, 2000)
	if err != nil {
		log.Printf("Ошибка при генерации поста: %s", err)
		g.notify(fmt.Sprintf("⚠️ Ошибка при генерации поста через OpenAI: %s", err))
		g.notify("📝 Генерируем резервный пост...")
		return g.fallbackPost(extra)
	}

	return post + "\n\n" + g.generateHashtags(ctx, post)
}

func (g *Generator) fallbackPost(extra string) string {
	if extra == "" {
		return strings.TrimSpace(g.prompts.FallbackPost)
	}

	return strings.TrimSpace(render(g.prompts.FallbackComment, map[string]string{"comment": truncate(extra, 100)}))
}

func (g *Generator) GenerateImagePrompt(ctx context.Context, post string) string {
	if !g.Configured() {
		return g.prompts.FallbackImagePrompt
	}

	prompt, err := g.chat(ctx, render(g.prompts.ImagePrompt, map[string]string{"post": truncate(post, 1500)}), 0.7, 300)
	if err != nil {
		log.Printf("Ошибка при генерации промпта для изображения: %s", err)
		g.notify(fmt.Sprintf("⚠️ Ошибка при генерации промпта для изображения: %s", err))
		return g.prompts.FallbackImagePrompt
	}

	return prompt
}

// URL изображения или пустая строка, если изображения не будет
func (g *Generator) GenerateImage(ctx context.Context, prompt string) string {
	if !g.Configured() {
		log.Printf("OPENAI_API_KEY не установлен, пропускаем генерацию изображения")
		g.notify("⚠️ OPENAI_API_KEY не установлен, пропускаем генерацию изображения")
		return ""
	}

	g.notify("🖼️ Запрашиваем изображение у DALL-E...")
	log.Printf("Запрос изображения с промптом: %s...", truncate(prompt, 100))

	ctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()

	response, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatURL,
		N:              1,
	})
	if err == nil && (len(response.Data) == 0 || response.Data[0].URL == "") {
		err = errEmptyResponse
	}
	if err != nil {
		log.Printf("Ошибка при генерации изображения: %s", err)
		g.notify(fmt.Sprintf("⚠️ Ошибка при генерации изображения через DALL-E: %s", err))
		return ""
	}

	log.Printf("Изображение сгенерировано: %s", response.Data[0].URL)
	g.notify("✅ Изображение успешно сгенерировано!")

	return response.Data[0].URL
}
