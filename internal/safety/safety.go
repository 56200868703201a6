// Package safety holds the fixed instruction and refusal strings shared by
// every endpoint. The language model is told to refuse health topics as a
// defense-in-depth layer; the pattern gate never relies on it.
package safety

// Instructions is injected into every chat completion and realtime session
// as the system prompt.
const Instructions = `You are a friendly in-car voice assistant. ` +
	`You must refuse to discuss health, medicine, symptoms, diagnoses, medication, ` +
	`nutrition, diets, supplements, fitness, or any wellness advice, in any language. ` +
	`If the user asks about any of these topics, briefly say you cannot help with ` +
	`health or nutrition questions and offer to help with something else. ` +
	`Never provide medical or dietary recommendations under any circumstances. ` +
	`For all other topics, answer concisely: the driver is listening, not reading.`

// Refusal is the fixed reply returned by the voice-chat endpoint when the
// classifier blocks an utterance.
const Refusal = `Извини, я не могу обсуждать темы здоровья, медицины и питания. ` +
	`Могу помочь с чем-нибудь другим — например, с маршрутом или музыкой.`
