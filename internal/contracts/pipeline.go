package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 메트릭, 실패 기록에서 이 상수를 사용해야 함
//
// 파이프라인 흐름 (평가일 단위):
//   S0 → S2 → S3 → S4 → S5
//   Data  Indicators/Factors  Ranker  Classifier  Publish

// Stage represents a pipeline stage
type Stage string

const (
	// StageData S0: 가격/펀더멘털/캘린더 로딩
	// 위치: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StageIndicators S2: 기술 지표 + 원시 팩터 추출 (종목별 병렬)
	// 위치: internal/s2_signals/
	StageIndicators Stage = "S2_INDICATORS"

	// StageRanker S3: 횡단면 백분위 랭킹 (평가일 barrier 이후 단일 스레드)
	// 위치: internal/selection/ranker.go
	StageRanker Stage = "S3_RANKER"

	// StageClassifier S4: BUY/SELL/NEUTRAL, 강도, 리밸런싱 우선순위
	// 위치: internal/selection/classifier.go
	StageClassifier Stage = "S4_CLASSIFIER"

	// StagePublish S5: 평가일 단위 all-or-nothing 발행
	// 위치: internal/ledger/
	StagePublish Stage = "S5_PUBLISH"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S2")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StageIndicators:
		return "S2"
	case StageRanker:
		return "S3"
	case StageClassifier:
		return "S4"
	case StagePublish:
		return "S5"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageData:
		return "데이터 로딩"
	case StageIndicators:
		return "지표/팩터 추출"
	case StageRanker:
		return "횡단면 랭킹"
	case StageClassifier:
		return "시그널 분류"
	case StagePublish:
		return "결과 발행"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageData,
		StageIndicators,
		StageRanker,
		StageClassifier,
		StagePublish,
	}
}
