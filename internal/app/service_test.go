package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/strideclub/champ/internal/app"
	"github.com/strideclub/champ/internal/domain/agegrade"
	"github.com/strideclub/champ/internal/domain/model"
	"github.com/strideclub/champ/pkg/logger"
)

func startService(opts ...service.Option) *service.Service {
	_ = logger.Init()
	opts = append(opts, service.WithLogger(logger.Get()))
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func mustRunner(ctx context.Context, svc *service.Service, name string, gender model.Gender, dob string) model.Runner {
	runner := model.Runner{Name: name, Gender: gender}
	if dob != "" {
		d, err := agegrade.ParseDate(dob)
		if err != nil {
			panic(err)
		}
		runner.DateOfBirth = &d
	}
	created, err := svc.CreateRunner(ctx, runner)
	if err != nil {
		panic(err)
	}
	return created
}

func mustRace(ctx context.Context, svc *service.Service, name string, date string, distanceKm float64) model.Race {
	d, err := agegrade.ParseDate(date)
	if err != nil {
		panic(err)
	}
	created, err := svc.CreateRace(ctx, model.Race{Name: name, Date: d, DistanceKm: distanceKm})
	if err != nil {
		panic(err)
	}
	return created
}

func TestServiceResultLifecycle(t *testing.T) {
	convey.Convey("Given a started service with a 5k race", t, func() {
		ctx := context.Background()
		svc := startService()
		race := mustRace(ctx, svc, "Spring 5k", "2026-04-12", 5)
		ann := mustRunner(ctx, svc, "Ann", model.Female, "1988-03-15")
		bea := mustRunner(ctx, svc, "Bea", model.Female, "1995-07-01")
		cat := mustRunner(ctx, svc, "Cat", model.Female, "")

		convey.Convey("When three results land", func() {
			first, err := svc.AddResult(ctx, race.ID, ann.ID, "20:30")
			convey.So(err, convey.ShouldBeNil)
			_, err = svc.AddResult(ctx, race.ID, bea.ID, "19:45")
			convey.So(err, convey.ShouldBeNil)
			_, err = svc.AddResult(ctx, race.ID, cat.ID, "21:10")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the returned record is already scored", func() {
				convey.So(first.Position, convey.ShouldNotBeNil)
				convey.So(first.Points, convey.ShouldNotBeNil)
			})

			convey.Convey("Then the race ranks by parsed time", func() {
				results, err := svc.RaceResults(ctx, race.ID)
				convey.So(err, convey.ShouldBeNil)

				positions := map[string]int{}
				points := map[string]int{}
				for _, r := range results {
					positions[r.RunnerID] = *r.Position
					points[r.RunnerID] = *r.Points
				}
				convey.So(positions[bea.ID], convey.ShouldEqual, 1)
				convey.So(positions[ann.ID], convey.ShouldEqual, 2)
				convey.So(positions[cat.ID], convey.ShouldEqual, 3)
				convey.So(points[bea.ID], convey.ShouldEqual, 25)
				convey.So(points[cat.ID], convey.ShouldEqual, 23)
			})

			convey.Convey("Then only runners with a date of birth hold age-graded fields", func() {
				results, _ := svc.RaceResults(ctx, race.ID)
				for _, r := range results {
					if r.RunnerID == cat.ID {
						convey.So(r.AgeGradedPercent, convey.ShouldBeNil)
						convey.So(r.AgeGradedPosition, convey.ShouldBeNil)
					} else {
						convey.So(r.AgeGradedPercent, convey.ShouldNotBeNil)
						convey.So(r.AgeGradedPosition, convey.ShouldNotBeNil)
					}
				}
			})

			convey.Convey("When a finish time is corrected", func() {
				updated, err := svc.UpdateResult(ctx, first.ID, "19:00")

				convey.So(err, convey.ShouldBeNil)
				convey.So(*updated.Position, convey.ShouldEqual, 1)

				convey.Convey("Then the displaced runner moves down", func() {
					results, _ := svc.RaceResults(ctx, race.ID)
					for _, r := range results {
						if r.RunnerID == bea.ID {
							convey.So(*r.Position, convey.ShouldEqual, 2)
						}
					}
				})
			})

			convey.Convey("When a result is removed", func() {
				convey.So(svc.DeleteResult(ctx, first.ID), convey.ShouldBeNil)

				convey.Convey("Then the remaining runners close the gap", func() {
					results, _ := svc.RaceResults(ctx, race.ID)
					convey.So(results, convey.ShouldHaveLength, 2)
					for _, r := range results {
						if r.RunnerID == cat.ID {
							convey.So(*r.Position, convey.ShouldEqual, 2)
						}
					}
				})
			})

			convey.Convey("When the runner's date of birth is corrected", func() {
				newDOB, _ := agegrade.ParseDate("1958-03-15")
				ann.DateOfBirth = &newDOB
				_, err := svc.UpdateRunner(ctx, ann)
				convey.So(err, convey.ShouldBeNil)

				convey.Convey("Then the age-graded percent rises on rescore", func() {
					older, _ := svc.GetResult(ctx, first.ID)
					convey.So(*older.AgeGradedPercent, convey.ShouldBeGreaterThan, *first.AgeGradedPercent)
				})
			})
		})

		convey.Convey("When adding a result with a bad time", func() {
			_, err := svc.AddResult(ctx, race.ID, ann.ID, "DNF")

			convey.So(err, convey.ShouldWrap, service.ErrInvalidInput)
		})
	})
}

func TestServiceStandings(t *testing.T) {
	convey.Convey("Given a season of two races", t, func() {
		ctx := context.Background()
		svc := startService(service.WithBestN(1))
		spring := mustRace(ctx, svc, "Spring 5k", "2026-04-12", 5)
		summer := mustRace(ctx, svc, "Summer 10k", "2026-06-14", 10)
		ann := mustRunner(ctx, svc, "Ann", model.Female, "1988-03-15")
		bea := mustRunner(ctx, svc, "Bea", model.Female, "1995-07-01")
		bob := mustRunner(ctx, svc, "Bob", model.Male, "1977-07-07")

		_, _ = svc.AddResult(ctx, spring.ID, ann.ID, "20:30")
		_, _ = svc.AddResult(ctx, spring.ID, bea.ID, "19:45")
		_, _ = svc.AddResult(ctx, spring.ID, bob.ID, "18:00")
		_, _ = svc.AddResult(ctx, summer.ID, ann.ID, "42:00")
		_, _ = svc.AddResult(ctx, summer.ID, bea.ID, "43:30")

		convey.Convey("When reading raw standings with best-1", func() {
			male, female, err := svc.RawStandings(ctx)

			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then each runner counts only their best race", func() {
				convey.So(male, convey.ShouldHaveLength, 1)
				convey.So(male[0].TotalPoints, convey.ShouldEqual, 25)
				convey.So(female, convey.ShouldHaveLength, 2)
				// Ann and Bea each won one race.
				convey.So(female[0].TotalPoints, convey.ShouldEqual, 25)
				convey.So(female[1].TotalPoints, convey.ShouldEqual, 25)
				convey.So(female[0].Position, convey.ShouldEqual, 1)
				convey.So(female[1].Position, convey.ShouldEqual, 1)
			})

			convey.Convey("Then participation counts every race", func() {
				for _, s := range female {
					convey.So(s.RacesParticipated, convey.ShouldEqual, 2)
				}
			})
		})

		convey.Convey("When widening the best-N window", func() {
			convey.So(svc.SetBestN(ctx, 5), convey.ShouldBeNil)

			_, female, err := svc.RawStandings(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then totals include both races without any rescore", func() {
				convey.So(female[0].TotalPoints, convey.ShouldEqual, 49)
				convey.So(female[1].TotalPoints, convey.ShouldEqual, 49)
			})
		})

		convey.Convey("When reading the age-graded table", func() {
			table, err := svc.AgeGradedStandings(ctx)

			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then all genders share one table", func() {
				convey.So(table, convey.ShouldHaveLength, 3)
				genders := map[model.Gender]bool{}
				for _, s := range table {
					genders[s.Gender] = true
				}
				convey.So(genders[model.Male], convey.ShouldBeTrue)
				convey.So(genders[model.Female], convey.ShouldBeTrue)
			})
		})

		convey.Convey("When rescoring everything", func() {
			races, err := svc.RescoreAll(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(races, convey.ShouldEqual, 2)

			convey.Convey("Then standings are unchanged by an idempotent rescore", func() {
				before, _, _ := svc.RawStandings(ctx)
				_, _ = svc.RescoreAll(ctx)
				after, _, _ := svc.RawStandings(ctx)

				convey.So(after, convey.ShouldResemble, before)
			})
		})
	})
}

func TestServiceAgeGradedPercent(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService()

		convey.Convey("When computing a one-off percentage", func() {
			percent, err := svc.AgeGradedPercent(ctx, 5, "20:30", 38, model.Female)

			convey.So(err, convey.ShouldBeNil)
			convey.So(percent, convey.ShouldBeGreaterThan, 0)
			convey.So(percent, convey.ShouldBeLessThan, 2)

			convey.Convey("Then the same inputs give the same answer", func() {
				again, err := svc.AgeGradedPercent(ctx, 5, "20:30", 38, model.Female)

				convey.So(err, convey.ShouldBeNil)
				convey.So(again, convey.ShouldEqual, percent)
			})
		})

		convey.Convey("When the time is malformed", func() {
			_, err := svc.AgeGradedPercent(ctx, 5, "soon", 38, model.Female)

			convey.So(err, convey.ShouldWrap, service.ErrInvalidInput)
		})

		convey.Convey("When the gender code is wrong", func() {
			_, err := svc.AgeGradedPercent(ctx, 5, "20:30", 38, model.Gender("X"))

			convey.So(err, convey.ShouldWrap, service.ErrInvalidInput)
		})
	})
}

func TestServiceStartOptions(t *testing.T) {
	convey.Convey("Given service configuration options", t, func() {
		ctx := context.Background()

		convey.Convey("When a custom points base is set", func() {
			svc := startService(service.WithPointsBase(10))
			race := mustRace(ctx, svc, "Spring 5k", "2026-04-12", 5)
			ann := mustRunner(ctx, svc, "Ann", model.Female, "")

			result, err := svc.AddResult(ctx, race.ID, ann.ID, "20:30")

			convey.So(err, convey.ShouldBeNil)
			convey.So(*result.Points, convey.ShouldEqual, 10)
		})

		convey.Convey("When the standards file does not exist", func() {
			_ = logger.Init()
			svc := service.New(
				service.WithLogger(logger.Get()),
				service.WithTablePath("/no/such/table.json"),
			)

			convey.So(svc.Start(ctx), convey.ShouldNotBeNil)
		})

		convey.Convey("When Start is called twice", func() {
			svc := startService()

			convey.So(svc.Start(ctx), convey.ShouldBeNil)
		})
	})
}

func TestServiceRescoreConcurrency(t *testing.T) {
	convey.Convey("Given many races and a bounded rescore pool", t, func() {
		ctx := context.Background()
		svc := startService(service.WithRescoreWorkers(2))

		runners := make([]model.Runner, 4)
		for i := range runners {
			runners[i] = mustRunner(ctx, svc, "Runner "+string(rune('A'+i)), model.Male, "1990-01-01")
		}
		for month := time.January; month <= time.June; month++ {
			race := mustRace(ctx, svc, "Race "+month.String(), "2026-0"+string(rune('0'+int(month)))+"-01", 5)
			for j, runner := range runners {
				_, err := svc.AddResult(ctx, race.ID, runner.ID, "00:2"+string(rune('0'+j))+":00")
				convey.So(err, convey.ShouldBeNil)
			}
		}

		convey.Convey("When rescoring everything at once", func() {
			races, err := svc.RescoreAll(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(races, convey.ShouldEqual, 6)

			convey.Convey("Then every race stays fully scored", func() {
				all, listErr := svc.ListRaces(ctx)
				convey.So(listErr, convey.ShouldBeNil)
				for _, race := range all {
					results, _ := svc.RaceResults(ctx, race.ID)
					convey.So(results, convey.ShouldHaveLength, 4)
					for _, r := range results {
						convey.So(r.Position, convey.ShouldNotBeNil)
					}
				}
			})
		})
	})
}
