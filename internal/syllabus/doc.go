// Package syllabus はシラバスカタログへの読み取り専用アクセスを提供する。
//
// シラバスドキュメントはシードツール（cmd/seed）によって帯域外で
// 投入され、サービス本体は書き込みを行わない。creditHoursとunitsは
// 自由形式の構造化値であり、内部構造の検証は行わない。
package syllabus
