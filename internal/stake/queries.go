package stake

import "strings"

// Operation names understood by the Stake GraphQL endpoint.
const (
	opUsdRates      = "UsdCurrencyConversionRate"
	opFiatRates     = "CurrencyConversionRate"
	opAllSportBets  = "AllSportBets"
	opHighrollerBet = "highrollerSportBets"
	opBetLookup     = "BetLookup"
)

// FiatCurrencies are the fiat columns requested by the CurrencyConversionRate query.
var FiatCurrencies = []string{"usd", "eur", "jpy", "cad", "brl", "cny", "idr", "inr", "krw", "php", "rub"}

const usdRatesQuery = `query UsdCurrencyConversionRate {
  info {
    currencies {
      name
      value
    }
  }
}
`

const tournamentSelection = `tournament {
  name
  category {
    name
    sport {
      name
      slug
    }
  }
}`

const sportBetFragment = `fragment WatchedSportBet on SportBet {
  id
  active
  amount
  currency
  status
  outcomes {
    odds
    fixture {
      name
      ` + tournamentSelection + `
    }
  }
}`

const playerPropBetFragment = `fragment WatchedPlayerPropBet on PlayerPropBet {
  id
  active
  amount
  currency
  status
  odds
  playerProps {
    odds
    playerProp {
      name
      player {
        name
      }
      market {
        game {
          fixture {
            name
            ` + tournamentSelection + `
          }
        }
      }
    }
  }
}`

const casinoBetFragment = `fragment WatchedCasinoBet on CasinoBet {
  id
  active
  amount
  currency
}`

const rootBetFragment = `fragment WatchedRootBet on Bet {
  id
  iid
  bet {
    __typename
    ... on SportBet {
      ...WatchedSportBet
    }
    ... on PlayerPropBet {
      ...WatchedPlayerPropBet
    }
    ... on CasinoBet {
      ...WatchedCasinoBet
    }
  }
}`

func fiatRatesQuery() string {
	var b strings.Builder
	b.WriteString("query CurrencyConversionRate {\n  info {\n    currencies {\n      name\n      value\n")
	for _, fiat := range FiatCurrencies {
		b.WriteString("      " + fiat + ": value(fiatCurrency: " + fiat + ")\n")
	}
	b.WriteString("    }\n  }\n}\n")
	return b.String()
}

func feedQuery(field string, op string) string {
	return "query " + op + "($limit: Int!) {\n  " + field + "(limit: $limit) {\n    ...WatchedRootBet\n  }\n}\n\n" +
		rootBetFragment + "\n\n" + sportBetFragment + "\n\n" + playerPropBetFragment + "\n\n" + casinoBetFragment + "\n"
}

func betLookupQuery() string {
	return "query BetLookup($iid: String, $betId: String) {\n  bet(iid: $iid, betId: $betId) {\n    ...WatchedRootBet\n  }\n}\n\n" +
		rootBetFragment + "\n\n" + sportBetFragment + "\n\n" + playerPropBetFragment + "\n\n" + casinoBetFragment + "\n"
}
